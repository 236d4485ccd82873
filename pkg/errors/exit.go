package errors

// 프로세스 종료 코드
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitConfig  = 2
)

// 코드 매핑 테이블
var exitCodeMapping = map[string]int{
	ErrConfig:          ExitConfig,
	ErrUnauthenticated: ExitFailure,
	ErrUnavailable:     ExitFailure,
	ErrInternal:        ExitFailure,
}

// ExitCode는 에러를 프로세스 종료 코드로 변환합니다
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var appErr *AppError
	if As(err, &appErr) {
		if code, ok := exitCodeMapping[appErr.Code()]; ok {
			return code
		}
	}
	return ExitFailure // 기본값
}

// CodeOf는 에러 체인에서 AppError 코드를 찾아 반환합니다
func CodeOf(err error) string {
	var appErr *AppError
	if As(err, &appErr) {
		return appErr.Code()
	}
	return ErrInternal
}
