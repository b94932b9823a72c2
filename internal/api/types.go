package api

import "github.com/deusflow/newsrelay/internal/relay"

// TriggerRequest is the optional body of a trigger call.
type TriggerRequest struct {
	Category string `json:"category"`
}

type TriggerResponse struct {
	Status  string          `json:"status"`
	Reports []*relay.Report `json:"reports,omitempty"`
	Error   string          `json:"error,omitempty"`
}
