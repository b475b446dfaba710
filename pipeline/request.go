package pipeline

import "ltp.dev/ltpgo/types"

type Request struct {
	Text  string       `json:"text"`
	Tid   string       `json:"tid"`
	Tasks []types.Task `json:"tasks,omitempty"`
}
