package trace

// TraceLevel controls the verbosity of decision tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelDecisions captures every service start and rejection.
	TraceLevelDecisions TraceLevel = "decisions"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:      true,
	TraceLevelDecisions: true,
	"":                  true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// SimulationTrace collects decision records during a simulation.
type SimulationTrace struct {
	Level      TraceLevel
	Services   []ServiceRecord
	Rejections []RejectionRecord
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
// Returns nil for TraceLevelNone so callers can skip recording with a nil check.
func NewSimulationTrace(level TraceLevel) *SimulationTrace {
	if level == "" || level == TraceLevelNone {
		return nil
	}
	return &SimulationTrace{
		Level:      level,
		Services:   make([]ServiceRecord, 0),
		Rejections: make([]RejectionRecord, 0),
	}
}

// RecordService appends a service record.
func (st *SimulationTrace) RecordService(record ServiceRecord) {
	st.Services = append(st.Services, record)
}

// RecordRejection appends a rejection record.
func (st *SimulationTrace) RecordRejection(record RejectionRecord) {
	st.Rejections = append(st.Rejections, record)
}

// Clear drops all records and keeps the level.
func (st *SimulationTrace) Clear() {
	st.Services = st.Services[:0]
	st.Rejections = st.Rejections[:0]
}
