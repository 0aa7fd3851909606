package workflow

// TaskAnalyzeBrief is the workflow stage marker sent with every request.
const TaskAnalyzeBrief = "analyze_brief"

// AnalysisRequest is one brief submission. It is built fresh per call and
// never stored.
type AnalysisRequest struct {
	// RawBrief is the normalized payload produced by the brief builder.
	RawBrief string
	// ThreadID correlates the call with the remote service's own state.
	// The session identity is used.
	ThreadID string
}

type invokeBody struct {
	Input  invokeInput  `json:"input"`
	Config invokeConfig `json:"config"`
}

type invokeInput struct {
	Messages        []any  `json:"messages"`
	RawBrief        string `json:"raw_brief"`
	CurrentTask     string `json:"current_task"`
	BriefAnalysis   any    `json:"brief_analysis"`
	ProjectStrategy any    `json:"project_strategy"`
	NextAgent       string `json:"next_agent"`
}

type invokeConfig struct {
	Configurable configurable `json:"configurable"`
}

type configurable struct {
	ThreadID string `json:"thread_id"`
}

func newInvokeBody(req AnalysisRequest) invokeBody {
	return invokeBody{
		Input: invokeInput{
			Messages:    []any{},
			RawBrief:    req.RawBrief,
			CurrentTask: TaskAnalyzeBrief,
		},
		Config: invokeConfig{
			Configurable: configurable{ThreadID: req.ThreadID},
		},
	}
}
