package obsidian

// Note represents the JSON structure of a note returned by the API.
// It corresponds to the 'NoteJson' schema of the Local REST API.
type Note struct {
	Content     string                 `json:"content"`
	Frontmatter map[string]interface{} `json:"frontmatter"`
	Path        string                 `json:"path"`
	Stat        FileStat               `json:"stat"`
	Tags        []string               `json:"tags"`
}

// FileStat contains file system metadata.
type FileStat struct {
	Ctime float64 `json:"ctime"`
	Mtime float64 `json:"mtime"`
	Size  float64 `json:"size"`
}

// ErrorResponse represents an error returned by the API.
type ErrorResponse struct {
	StatusCode int    `json:"-"`
	ErrorCode  int    `json:"errorCode"`
	Message    string `json:"message"`
}

// Error implements the error interface.
func (e *ErrorResponse) Error() string {
	return e.Message
}

// PeriodDaily names the daily notes period of the periodic endpoints.
const PeriodDaily = "daily"

const (
	noteJSONType = "application/vnd.olrapi.note+json"
	markdownType = "text/markdown"
)
