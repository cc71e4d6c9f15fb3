// ABOUTME: Test scenario data structures for RAGAS benchmarks
// ABOUTME: Defines documents to ingest, the question, and ground truth for each test

package ragas

// TestScenario represents a complete RAGAS benchmark test
type TestScenario struct {
	ID          string
	Name        string
	Description string
	Documents   []SourceDocument
	Question    string
	Mode        string
	K           int
	GroundTruth GroundTruth
}

// SourceDocument is one document ingested before the question is asked.
// Filename selects an extractor; without it Content is ingested as raw text.
type SourceDocument struct {
	Filename string
	Content  string
}

// GroundTruth defines expected outcomes for RAGAS evaluation
type GroundTruth struct {
	ExpectedInResponse  []string // Strings that MUST appear in response
	ForbiddenInResponse []string // Strings that MUST NOT appear in response

	// Context retrieval expectations
	ExpectedContextItems []string // Text that should appear in retrieved chunks
}

// TestResult represents the outcome of a benchmark test
type TestResult struct {
	TestID             string                 `json:"test_id"`
	TestName           string                 `json:"test_name"`
	FaithfulnessScore  float64                `json:"faithfulness"`
	ContextRecallScore float64                `json:"context_recall"`
	PrecisionAtK       float64                `json:"precision_at_k"`
	ReciprocalRank     float64                `json:"reciprocal_rank"`
	OverallScore       float64                `json:"overall"`
	Status             string                 `json:"status"` // "PASS" or "FAIL"
	Details            map[string]interface{} `json:"details,omitempty"`
	ErrorMessage       string                 `json:"error,omitempty"`
}

// GetTestSky returns the basic two-document retrieval scenario
func GetTestSky() TestScenario {
	return TestScenario{
		ID:          "sky",
		Name:        "Single Fact Retrieval",
		Description: "Two unrelated one-line documents; the question matches exactly one",
		Documents: []SourceDocument{
			{Content: "The sky is blue."},
			{Content: "Stocks rose today."},
		},
		Question: "What color is the sky?",
		K:        1,
		GroundTruth: GroundTruth{
			ExpectedInResponse:   []string{"blue"},
			ForbiddenInResponse:  []string{"stocks"},
			ExpectedContextItems: []string{"sky is blue"},
		},
	}
}

// GetTestCapitals returns a scenario with near-duplicate distractors
func GetTestCapitals() TestScenario {
	return TestScenario{
		ID:          "capitals",
		Name:        "Distractor Discrimination",
		Description: "Three documents share most words; only one names the asked country",
		Documents: []SourceDocument{
			{Filename: "france.txt", Content: "Paris is the capital of France."},
			{Filename: "germany.txt", Content: "Berlin is the capital of Germany."},
			{Filename: "italy.txt", Content: "Rome is the capital of Italy."},
		},
		Question: "What is the capital of France?",
		K:        1,
		GroundTruth: GroundTruth{
			ExpectedInResponse:   []string{"Paris"},
			ForbiddenInResponse:  []string{"Berlin", "Rome"},
			ExpectedContextItems: []string{"capital of France"},
		},
	}
}

// GetTestHTML returns a scenario whose answer lives in an HTML page
func GetTestHTML() TestScenario {
	return TestScenario{
		ID:          "html",
		Name:        "HTML Extraction",
		Description: "Answer is in page body; script and head content must not leak into answers",
		Documents: []SourceDocument{
			{
				Filename: "weather.html",
				Content: `<html><head><title>Weather</title></head><body>
<h1>Rainfall</h1>
<p>Seattle gets frequent rain in winter.</p>
<script>var fallback = "Phoenix";</script>
</body></html>`,
			},
			{Filename: "desert.md", Content: "Phoenix is dry and sunny most of the year."},
			{Content: "The stock market closed higher on Friday."},
		},
		Question: "Which city gets rain in winter?",
		K:        1,
		GroundTruth: GroundTruth{
			ExpectedInResponse:   []string{"Seattle"},
			ForbiddenInResponse:  []string{"Phoenix", "var fallback"},
			ExpectedContextItems: []string{"Seattle gets frequent rain"},
		},
	}
}

// GetTestReport returns a scenario answering from a workplace document set
func GetTestReport() TestScenario {
	return TestScenario{
		ID:          "report",
		Name:        "Numeric Fact Recall",
		Description: "The answer is a figure stated in one of several office documents",
		Documents: []SourceDocument{
			{Filename: "q3.txt", Content: "The quarterly report shows revenue grew twelve percent."},
			{Filename: "security.txt", Content: "Employees must badge in at the front desk."},
			{Filename: "cafeteria.txt", Content: "The cafeteria serves lunch from noon until two."},
		},
		Question: "How much did revenue grow in the quarterly report?",
		K:        1,
		GroundTruth: GroundTruth{
			ExpectedInResponse:   []string{"twelve percent"},
			ForbiddenInResponse:  []string{"cafeteria"},
			ExpectedContextItems: []string{"revenue grew"},
		},
	}
}

// GetAllTests returns all benchmark scenarios
func GetAllTests() []TestScenario {
	return []TestScenario{
		GetTestSky(),
		GetTestCapitals(),
		GetTestHTML(),
		GetTestReport(),
	}
}

// GetTest returns the scenario with the given id
func GetTest(id string) (TestScenario, bool) {
	for _, s := range GetAllTests() {
		if s.ID == id {
			return s, true
		}
	}
	return TestScenario{}, false
}
