package util

const (
	StorageLocal = "local"
	StorageMinio = "minio"
	StorageOSS   = "oss"
)

// 媒体上传允许的 MIME 前缀
const (
	MimeVideo = "video/"
	MimeImage = "image/"
)

var AllowedMediaTypes = []string{MimeImage, MimeVideo}

// PhonePattern 仅支持印度手机号：+91 加 10 位数字
const PhonePattern = `^\+91\d{10}$`
