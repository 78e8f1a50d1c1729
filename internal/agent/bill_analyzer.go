package agent

import (
	"context"
	"fmt"
	"sync"

	"google.golang.org/adk/model"
	"google.golang.org/adk/tool"
	"google.golang.org/adk/tool/functiontool"
)

// BillConfidence uses the usual High/Medium/Low confidence vocabulary.
type BillConfidence string

const (
	BillConfidenceHigh   BillConfidence = "High"
	BillConfidenceMedium BillConfidence = "Medium"
	BillConfidenceLow    BillConfidence = "Low"
)

// BillAnalysisResult is the structured read of one electricity bill photo
// or document, grounded on photo_analyzer.go's image-artifact-to-structured
// -output shape.
type BillAnalysisResult struct {
	MonthlyAmount float64
	UtilityName   string
	Confidence    BillConfidence
	Observations  []string
}

type recordBillAnalysisInput struct {
	MonthlyAmount float64  `json:"monthlyAmount"`
	UtilityName   string   `json:"utilityName,omitempty"`
	Confidence    string   `json:"confidence"`
	Observations  []string `json:"observations,omitempty"`
}

type recordBillAnalysisOutput struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// BillAnalyzerAgent extracts the monthly bill amount from OCR'd or
// transcript text produced by internal/media for an uploaded bill photo
// or PDF.
type BillAnalyzerAgent struct {
	rt     *runtime
	mu     sync.Mutex
	result BillAnalysisResult
}

func NewBillAnalyzerAgent(llm model.LLM) (*BillAnalyzerAgent, error) {
	a := &BillAnalyzerAgent{}

	recordTool, err := functiontool.New(functiontool.Config{
		Name:        "RecordBillAnalysis",
		Description: "Records the monthly bill amount and utility name read from the extracted bill text, with a confidence level.",
	}, func(ctx tool.Context, in recordBillAnalysisInput) (recordBillAnalysisOutput, error) {
		return a.handleRecord(in)
	})
	if err != nil {
		return nil, fmt.Errorf("build RecordBillAnalysis tool: %w", err)
	}

	rt, err := newRuntime("BillAnalyzerAgent",
		"Reads the monthly electricity bill amount out of extracted bill text.",
		"You are given OCR or document-extracted text from a photographed or uploaded electricity bill. Find the total monthly amount due and the utility company name, then call RecordBillAnalysis exactly once.",
		llm, []tool.Tool{recordTool})
	if err != nil {
		return nil, err
	}
	a.rt = rt
	return a, nil
}

func (a *BillAnalyzerAgent) handleRecord(in recordBillAnalysisInput) (recordBillAnalysisOutput, error) {
	confidence := BillConfidence(in.Confidence)
	switch confidence {
	case BillConfidenceHigh, BillConfidenceMedium, BillConfidenceLow:
	default:
		confidence = BillConfidenceLow
	}

	a.mu.Lock()
	a.result = BillAnalysisResult{
		MonthlyAmount: in.MonthlyAmount,
		UtilityName:   in.UtilityName,
		Confidence:    confidence,
		Observations:  in.Observations,
	}
	a.mu.Unlock()
	return recordBillAnalysisOutput{Success: true, Message: "recorded"}, nil
}

// Run analyzes extractedText (produced by internal/media for one bill
// attachment) and returns the structured read.
func (a *BillAnalyzerAgent) Run(ctx context.Context, leadID, extractedText string) (BillAnalysisResult, error) {
	a.mu.Lock()
	a.result = BillAnalysisResult{}
	a.mu.Unlock()

	promptText := "Extracted bill text:\n" + extractedText
	if err := a.rt.runPrompt(ctx, leadID, promptText); err != nil {
		return BillAnalysisResult{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	return a.result, nil
}
