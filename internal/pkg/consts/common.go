package consts

const (
	// MediaTempKey 临时媒体元数据 Hash Key
	MediaTempKey = "festa:media:temp"
)

const (
	// TempObjectExpireSeconds 临时对象保留时长
	TempObjectExpireSeconds = 24 * 60 * 60
)

const (
	SeverityInfo    = "info"
	SeverityWarning = "warning"
	SeverityError   = "error"
	SeveritySuccess = "success"
)
