package core

import "errors"

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供模块（Module）、错误代码（Code）和消息（Message）
//   - 可包装底层错误（Err），支持 errors.Is / errors.As 逐层展开
//
// 使用场景：
//   - 参数校验：INVALID_INPUT（courseId / topic 缺失）
//   - 外部服务：UNAVAILABLE、NOT_CONFIGURED（Embedding / 搜索服务）
//   - 存储：NOT_FOUND
//   - 数据异常：DATA_ANOMALY（已存推荐集中出现重复 ID）
type DomainError struct {
	Code    string // 错误代码（如 "INVALID_INPUT", "UNAVAILABLE"）
	Message string // 错误消息
	Module  string // 模块名称（如 "validation", "provider", "store"）
	Err     error  // 底层错误（可选）
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *DomainError) Unwrap() error { return e.Err }

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// WrapDomainError 创建包装了底层错误的领域错误
func WrapDomainError(module, code, message string, err error) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// 错误代码常量
const (
	ErrorCodeNotFound      = "NOT_FOUND"      // 资源不存在
	ErrorCodeInvalidInput  = "INVALID_INPUT"  // 输入无效
	ErrorCodeUnavailable   = "UNAVAILABLE"    // 外部服务不可用或返回错误状态
	ErrorCodeNotConfigured = "NOT_CONFIGURED" // 缺少凭证等配置
	ErrorCodeDataAnomaly   = "DATA_ANOMALY"   // 存储数据异常（重复 ID）
	ErrorCodeInternalError = "INTERNAL_ERROR" // 内部错误
)

// 模块名称常量
const (
	ModuleValidation = "validation" // 参数校验
	ModuleProvider   = "provider"   // 外部服务（Embedding / 视频搜索）
	ModuleStore      = "store"      // 存储模块
	ModuleRanker     = "ranker"     // 排序编排
)

// GetDomainError 沿错误链查找 DomainError，找不到返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// IsDomainError 检查错误链中是否包含 DomainError
func IsDomainError(err error) bool {
	return GetDomainError(err) != nil
}

func hasCode(err error, code string) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == code
	}
	return false
}

// IsInvalidInput 检查错误是否为 INVALID_INPUT
func IsInvalidInput(err error) bool {
	return hasCode(err, ErrorCodeInvalidInput)
}

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool {
	return hasCode(err, ErrorCodeNotFound)
}

// IsDataAnomaly 检查错误是否为 DATA_ANOMALY
func IsDataAnomaly(err error) bool {
	return hasCode(err, ErrorCodeDataAnomaly)
}

// IsProviderError 检查错误是否来自外部服务（不可用或未配置）
func IsProviderError(err error) bool {
	domainErr := GetDomainError(err)
	return domainErr != nil && domainErr.Module == ModuleProvider
}

// NewValidationError 创建参数校验错误
func NewValidationError(message string) *DomainError {
	return NewDomainError(ModuleValidation, ErrorCodeInvalidInput, message)
}

// NewProviderError 创建外部服务错误
func NewProviderError(message string, err error) *DomainError {
	return WrapDomainError(ModuleProvider, ErrorCodeUnavailable, message, err)
}

// Store / Provider 预定义错误
var (
	// ErrStoreNotFound 表示记录不存在
	ErrStoreNotFound = NewDomainError(ModuleStore, ErrorCodeNotFound, "store: record not found")

	// ErrMissingCredential 表示外部服务未配置凭证
	ErrMissingCredential = NewDomainError(ModuleProvider, ErrorCodeNotConfigured, "provider: api key not configured")

	// ErrDuplicateRecommendations 表示已存推荐集中存在重复的外部 ID
	ErrDuplicateRecommendations = NewDomainError(ModuleRanker, ErrorCodeDataAnomaly, "ranker: duplicate external ids in stored set")
)
