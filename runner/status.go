package runner

import (
	"encoding/json"
	"fmt"
)

// Status is a verdict. Values match Judge0 status ids.
type Status int

const (
	StatusInQueue Status = iota + 1
	StatusProcessing
	StatusAccepted
	StatusWrongAnswer
	StatusTimeLimitExceeded
	StatusCompilationError
	StatusRuntimeSIGSEGV
	StatusRuntimeSIGXFSZ
	StatusRuntimeSIGFPE
	StatusRuntimeSIGABRT
	StatusRuntimeNZEC
	StatusRuntimeOther
	StatusInternalError
	StatusExecFormatError
)

var statusNames = map[Status]string{
	StatusInQueue:           "In Queue",
	StatusProcessing:        "Processing",
	StatusAccepted:          "Accepted",
	StatusWrongAnswer:       "Wrong Answer",
	StatusTimeLimitExceeded: "Time Limit Exceeded",
	StatusCompilationError:  "Compilation Error",
	StatusRuntimeSIGSEGV:    "Runtime Error (SIGSEGV)",
	StatusRuntimeSIGXFSZ:    "Runtime Error (SIGXFSZ)",
	StatusRuntimeSIGFPE:     "Runtime Error (SIGFPE)",
	StatusRuntimeSIGABRT:    "Runtime Error (SIGABRT)",
	StatusRuntimeNZEC:       "Runtime Error (NZEC)",
	StatusRuntimeOther:      "Runtime Error (Other)",
	StatusInternalError:     "Internal Error",
	StatusExecFormatError:   "Exec Format Error",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Final reports whether the status is a verdict rather than a queue state.
func (s Status) Final() bool {
	return s >= StatusAccepted
}

// IsRuntimeError reports whether s is one of the runtime error verdicts.
func (s Status) IsRuntimeError() bool {
	return s >= StatusRuntimeSIGSEGV && s <= StatusRuntimeOther
}

type statusJSON struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
}

// MarshalJSON encodes the status the way Judge0 does.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(statusJSON{ID: int(s), Description: s.String()})
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var v statusJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = Status(v.ID)
	return nil
}

// StatusFromExitCode maps a process exit code to a verdict. Codes above 128
// are read as 128+signal, the way shells report them.
func StatusFromExitCode(code int) Status {
	switch code {
	case 0:
		return StatusAccepted
	case 128 + 11:
		return StatusRuntimeSIGSEGV
	case 128 + 25:
		return StatusRuntimeSIGXFSZ
	case 128 + 8:
		return StatusRuntimeSIGFPE
	case 128 + 6:
		return StatusRuntimeSIGABRT
	case 128 + 9:
		return StatusRuntimeOther
	default:
		return StatusRuntimeNZEC
	}
}
