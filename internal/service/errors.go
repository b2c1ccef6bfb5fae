package service

import (
	"errors"
)

const (
	BadRequest          = 400
	Unauthorized        = 401
	NotFound            = 404
	Conflict            = 409
	InternalServerError = 500
)

var (
	ErrParamInvalid     = errors.New("参数错误")
	ErrFileNotSupported = errors.New("不支持的文件类型")
	ErrFileNotExist     = errors.New("文件不存在")
	ErrPreviewMissing   = errors.New("预览不可用，无法生成水印")
	ErrUploadBusy       = errors.New("上传正在进行中")
	UnExpectedError     = errors.New("系统异常，请稍后重试")
)

var ErrorMap = map[error]int{
	ErrParamInvalid:     BadRequest,
	ErrFileNotSupported: BadRequest,
	ErrFileNotExist:     NotFound,
	ErrPreviewMissing:   BadRequest,
	ErrUploadBusy:       Conflict,
	UnExpectedError:     InternalServerError,
}
