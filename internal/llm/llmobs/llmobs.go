package llmobs

import (
	"context"
	"time"

	"composite-signal-bot/internal/interfaces"
	"composite-signal-bot/internal/logger"
	"composite-signal-bot/internal/metrics"
	"composite-signal-bot/internal/types"
)

type observableClassifier struct {
	classifier interfaces.Classifier
	metrics    *metrics.Recorder
}

var _ interfaces.Classifier = (*observableClassifier)(nil)

// Wrap adds logging, tracing and metrics around a classifier. m may be nil.
func Wrap(classifier interfaces.Classifier, m *metrics.Recorder) interfaces.Classifier {
	return &observableClassifier{classifier: classifier, metrics: m}
}

func (oc *observableClassifier) Name() string { return oc.classifier.Name() }

func (oc *observableClassifier) Classify(ctx context.Context, text string) (types.ClassifierResult, error) {
	name := oc.classifier.Name()
	defer oc.metrics.Since("classify", time.Now())

	op := logger.StartOperation(ctx, "classifier.Classify", "classifier", name, "chars", len(text))
	res, err := oc.classifier.Classify(op.Context(), text)
	if err != nil {
		oc.metrics.Classification(name, "error")
		op.EndWithError(err)
		return types.ClassifierResult{}, err
	}

	oc.metrics.Classification(name, string(res.Label))
	op.End("label", string(res.Label), "confidence", res.Confidence)
	return res, nil
}
