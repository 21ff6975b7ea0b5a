package models

// Envelope codes.
const (
	CodeOK     = 0
	CodeFailed = 1
)

// ResponseModel Base response structure that can be reused
type ResponseModel struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

func NewResponse(code int, data interface{}, message string) ResponseModel {
	return ResponseModel{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

func NewOKResponse(data interface{}) ResponseModel {
	return NewResponse(CodeOK, data, "OK")
}

func NewFailedResponse(message string, data interface{}) ResponseModel {
	return NewResponse(CodeFailed, data, message)
}
