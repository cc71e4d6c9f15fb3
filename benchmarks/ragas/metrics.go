// ABOUTME: RAGAS metrics implementation for faithfulness, context recall, and ranking quality
// ABOUTME: Simplified deterministic evaluation based on ground truth comparison

package ragas

import (
	"fmt"
	"strings"
)

// MetricsCalculator computes RAGAS scores for benchmark tests
type MetricsCalculator struct{}

// NewMetricsCalculator creates a new metrics calculator
func NewMetricsCalculator() *MetricsCalculator {
	return &MetricsCalculator{}
}

// CalculateFaithfulness computes faithfulness score (0.0-1.0)
// Faithfulness = Does the response match retrieved context? No hallucinations?
func (m *MetricsCalculator) CalculateFaithfulness(
	response string,
	expectedInResponse []string,
	forbiddenInResponse []string,
) (float64, string) {
	responseUpper := strings.ToUpper(response)

	missingItems := []string{}
	for _, expected := range expectedInResponse {
		if !strings.Contains(responseUpper, strings.ToUpper(expected)) {
			missingItems = append(missingItems, expected)
		}
	}

	forbiddenFound := []string{}
	for _, forbidden := range forbiddenInResponse {
		if strings.Contains(responseUpper, strings.ToUpper(forbidden)) {
			forbiddenFound = append(forbiddenFound, forbidden)
		}
	}

	// Perfect score (1.0) requires all expected items AND no forbidden items
	switch {
	case len(missingItems) == 0 && len(forbiddenFound) == 0:
		return 1.0, "Perfect faithfulness - response matches expected ground truth"
	case len(missingItems) > 0 && len(forbiddenFound) > 0:
		return 0.0, fmt.Sprintf(
			"Faithfulness failure - missing expected items: %v, forbidden items found: %v",
			missingItems, forbiddenFound,
		)
	case len(missingItems) > 0:
		return 0.5, fmt.Sprintf("Partial faithfulness - missing expected items: %v", missingItems)
	default:
		return 0.5, fmt.Sprintf("Partial faithfulness - forbidden items found: %v", forbiddenFound)
	}
}

// CalculateContextRecall computes context recall score (0.0-1.0)
// Context Recall = Was the correct context retrieved from the store?
func (m *MetricsCalculator) CalculateContextRecall(
	retrievedContext []string,
	expectedContextItems []string,
) (float64, string) {
	if len(expectedContextItems) == 0 {
		return 1.0, "No context retrieval required"
	}

	allContext := strings.ToUpper(strings.Join(retrievedContext, " "))

	foundCount := 0
	missingItems := []string{}
	for _, expectedItem := range expectedContextItems {
		if strings.Contains(allContext, strings.ToUpper(expectedItem)) {
			foundCount++
		} else {
			missingItems = append(missingItems, expectedItem)
		}
	}

	recall := float64(foundCount) / float64(len(expectedContextItems))
	if recall == 1.0 {
		return 1.0, "Perfect context recall - all expected items retrieved"
	}

	return recall, fmt.Sprintf(
		"Partial context recall (%.2f) - missing items: %v",
		recall, missingItems,
	)
}

// CalculatePrecisionAtK is the share of retrieved chunks containing any expected item
func (m *MetricsCalculator) CalculatePrecisionAtK(retrieved []string, expectedContextItems []string) float64 {
	if len(retrieved) == 0 {
		return 0
	}
	relevant := 0
	for _, chunk := range retrieved {
		if isRelevant(chunk, expectedContextItems) {
			relevant++
		}
	}
	return float64(relevant) / float64(len(retrieved))
}

// CalculateReciprocalRank is 1/rank of the first relevant chunk, 0 when none is relevant
func (m *MetricsCalculator) CalculateReciprocalRank(retrieved []string, expectedContextItems []string) float64 {
	for i, chunk := range retrieved {
		if isRelevant(chunk, expectedContextItems) {
			return 1.0 / float64(i+1)
		}
	}
	return 0
}

func isRelevant(chunk string, expectedContextItems []string) bool {
	upper := strings.ToUpper(chunk)
	for _, item := range expectedContextItems {
		if strings.Contains(upper, strings.ToUpper(item)) {
			return true
		}
	}
	return false
}

// EvaluateTest runs full RAGAS evaluation for a test
func (m *MetricsCalculator) EvaluateTest(
	scenario TestScenario,
	finalResponse string,
	retrievedContext []string,
) TestResult {
	faithfulness, faithfulnessDetail := m.CalculateFaithfulness(
		finalResponse,
		scenario.GroundTruth.ExpectedInResponse,
		scenario.GroundTruth.ForbiddenInResponse,
	)

	recall, recallDetail := m.CalculateContextRecall(
		retrievedContext,
		scenario.GroundTruth.ExpectedContextItems,
	)

	overallScore := (faithfulness + recall) / 2.0

	// Both metrics must clear 0.9
	status := "FAIL"
	if faithfulness >= 0.9 && recall >= 0.9 {
		status = "PASS"
	}

	return TestResult{
		TestID:             scenario.ID,
		TestName:           scenario.Name,
		FaithfulnessScore:  faithfulness,
		ContextRecallScore: recall,
		PrecisionAtK:       m.CalculatePrecisionAtK(retrievedContext, scenario.GroundTruth.ExpectedContextItems),
		ReciprocalRank:     m.CalculateReciprocalRank(retrievedContext, scenario.GroundTruth.ExpectedContextItems),
		OverallScore:       overallScore,
		Status:             status,
		Details: map[string]interface{}{
			"faithfulness_detail": faithfulnessDetail,
			"recall_detail":       recallDetail,
			"final_response":      preview(finalResponse, 200),
			"context_items":       len(retrievedContext),
		},
	}
}

// preview cuts s to at most n runes
func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
