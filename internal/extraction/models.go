package extraction

// Candidate is one contest mention pulled out of a blog post. Name and
// date are required by the schema; url and organizer may be empty.
type Candidate struct {
	Name      string `json:"name"`
	Date      string `json:"date"`
	URL       string `json:"url"`
	Organizer string `json:"organizer"`
}

// Buckets groups candidates by the kind of entity running the contest.
type Buckets struct {
	PlatformContests []Candidate `json:"platformContests"`
	CollegeContests  []Candidate `json:"collegeContests"`
	CompanyContests  []Candidate `json:"companyContests"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type functionDef struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

type chatRequest struct {
	Model        string            `json:"model"`
	Messages     []chatMessage     `json:"messages"`
	Functions    []functionDef     `json:"functions"`
	FunctionCall map[string]string `json:"function_call"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			FunctionCall *struct {
				Name      string `json:"name"`
				Arguments string `json:"arguments"`
			} `json:"function_call"`
		} `json:"message"`
	} `json:"choices"`
}

const functionName = "extractContestsByOrganizer"

func candidateSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name":      map[string]any{"type": "string"},
			"date":      map[string]any{"type": "string"},
			"url":       map[string]any{"type": "string"},
			"organizer": map[string]any{"type": "string"},
		},
		"required": []string{"name", "date"},
	}
}

func extractionFunction() functionDef {
	return functionDef{
		Name:        functionName,
		Description: "Return arrays of contests run by CP platforms, colleges and companies.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"platformContests": map[string]any{"type": "array", "items": candidateSchema()},
				"collegeContests":  map[string]any{"type": "array", "items": candidateSchema()},
				"companyContests":  map[string]any{"type": "array", "items": candidateSchema()},
			},
			"required": []string{"platformContests", "collegeContests", "companyContests"},
		},
	}
}
