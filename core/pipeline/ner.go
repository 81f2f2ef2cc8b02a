package pipeline

import (
	"fmt"
	"strings"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"

	"github.com/docuquery/docuquery/helper"
)

// DefaultRecognizer creates a named entity recognizer using a NER
// model. Detects PER, ORG, LOC and MISC entities. The returned
// function is safe for concurrent use.
func DefaultRecognizer(modelName string) (RecognizeFunc, error) {
	modelPath, err := helper.PrepareModel(modelName, "model.onnx")
	if err != nil {
		return nil, err
	}

	// Initialize hugot session with Go backend
	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create hugot session: %w", err)
	}

	config := hugot.TokenClassificationConfig{
		ModelPath: modelPath,
		Name:      "ner-pipeline",
		Options: []hugot.TokenClassificationOption{
			pipelines.WithSimpleAggregation(),
			pipelines.WithIgnoreLabels([]string{"O"}),
		},
	}
	nerPipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("failed to create NER pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, fmt.Errorf("failed to create NER pipeline: %w", err)
	}

	return func(text string) ([]Mention, error) {
		result, err := nerPipeline.RunPipeline([]string{text})
		if err != nil {
			return nil, fmt.Errorf("failed to run NER: %w", err)
		}

		if len(result.Entities) == 0 {
			return nil, nil
		}

		var mentions []Mention
		for _, entity := range result.Entities[0] {
			word := strings.TrimSpace(entity.Word)
			if word == "" {
				continue
			}

			mentions = append(mentions, Mention{
				Text:  word,
				Label: normalizeLabel(entity.Entity),
				Start: int(entity.Start),
				End:   int(entity.End),
			})
		}

		return mentions, nil
	}, nil
}

// normalizeLabel removes BIO tagging prefixes (B- for beginning,
// I- for inside) from NER labels.
func normalizeLabel(label string) string {
	if strings.HasPrefix(label, "B-") {
		return label[2:]
	}
	if strings.HasPrefix(label, "I-") {
		return label[2:]
	}
	return label
}
