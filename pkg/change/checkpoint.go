package change

import "time"

// Checkpoint marks the last sync cycle that completed. RemoteCursor is the
// remote feed position pulled up to; LocalSeq is the highest local sequence
// number pushed.
type Checkpoint struct {
	RemoteCursor int64     `json:"remoteCursor"`
	LocalSeq     int64     `json:"localSeq"`
	LastSync     time.Time `json:"lastSync"`
}
