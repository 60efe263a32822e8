package health

import "time"

type Response struct {
	Status     string    `json:"status"`
	Service    string    `json:"service"`
	IndexReady bool      `json:"index_ready"`
	Timestamp  time.Time `json:"timestamp"`
}

type PingResponse struct {
	Message string `json:"message"`
}
