package errors

// 에러 코드 정의
const (
	// ErrInternal 분류되지 않은 에러
	ErrInternal = "INTERNAL"
	// ErrConfig 설정 누락/오류. 외부 호출 전에 반환됩니다
	ErrConfig = "CONFIG"
	// ErrUnavailable 외부 시스템(소스, 저장소) 호출 실패
	ErrUnavailable = "UNAVAILABLE"
	// ErrUnauthenticated 외부 시스템이 자격 증명을 거부함
	ErrUnauthenticated = "UNAUTHENTICATED"
)
