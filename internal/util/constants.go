package util

const (
	DateFormat = "2006-01-02"
	TimeFormat = "2006-01-02 15:04:05"
)

const (
	StorageLocal = "local"
	StorageMinio = "minio"
)

const (
	DefaultAccessCodeLength = 6
	MaxSessionMinutes       = 7 * 24 * 60
)

const MimeCSV = "text/csv"
