package entity

// JournalEntry 一条控制操作日志
type JournalEntry struct {
	ID        uint64 `json:"id"`
	Time      string `json:"time"`
	Operation string `json:"operation"`
	Message   string `json:"message"`
}

// JournalListRequest limit <= 0 表示全部
type JournalListRequest struct {
	Limit int `json:"limit"`
}

type JournalListReply struct {
	Entries []JournalEntry `json:"entries"`
}
