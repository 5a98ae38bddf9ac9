package domain

// Stream sentinels bracket the model-output portion of an event sequence.
// They travel as ordinary llm_output chunks; consumers match them literally.
const (
	StreamStart = "$=~=$start$=~=$"
	StreamEnd   = "$=~=$end$=~=$"
)

// Event is one element of the progress stream emitted by long-running jobs.
// The zero-valued fields are omitted, so each event carries exactly one of
// the wire protocol's shapes (status, llm_output, terminal payload, error).
type Event struct {
	Status       string `json:"status,omitempty"`
	LLMOutput    string `json:"llm_output,omitempty"`
	DirName      string `json:"dir_name,omitempty"`
	BaseFileName string `json:"base_file_name,omitempty"`
	Error        string `json:"error,omitempty"`
}

// StatusEvent reports a stage transition.
func StatusEvent(msg string) Event { return Event{Status: msg} }

// ChunkEvent forwards one increment of model output.
func ChunkEvent(text string) Event { return Event{LLMOutput: text} }

// ErrorEvent is the terminal failure payload; it ends the sequence.
func ErrorEvent(err error) Event { return Event{Error: MessageOf(err)} }
