package mongo

const (
	store        = "transcription"
	requestTable = "request"
	statusTable  = "status"
)

var indexData = []IndexData{
	newIndexData(requestTable, "ID", true),
	newIndexData(statusTable, "ID", true)}
