// Standard attribute keys for estimator logging.
//
// Keys follow a hierarchical naming convention ("model.name", "data.samples")
// so log pipelines can filter on them.

package log

// Model and operation context.
const (
	// ModelNameKey identifies the estimator type, e.g. "GaussianNB", "PCA".
	ModelNameKey = "model.name"

	// EstimatorIDKey is the UUID assigned to an estimator instance at construction.
	EstimatorIDKey = "estimator.id"

	// OperationKey is the operation being performed: fit, predict, transform...
	OperationKey = "ml.operation"

	// ComponentKey is the package performing the operation, e.g. "neighbors".
	ComponentKey = "ml.component"

	// PhaseKey indicates the lifecycle phase: training or inference.
	PhaseKey = "ml.phase"
)

// Data shape.
const (
	SamplesKey    = "data.samples"
	FeaturesKey   = "data.features"
	ClassesKey    = "data.classes"
	ComponentsKey = "data.components"
)

// Training progress and metrics.
const (
	DurationMsKey = "perf.duration_ms"
	AccuracyKey   = "metrics.accuracy"
	LossKey       = "metrics.loss"
	IterationKey  = "training.iteration"

	// ExplainedVarianceKey records the fraction of variance kept by PCA.
	ExplainedVarianceKey = "metrics.explained_variance_ratio"
)

// Prediction context.
const (
	PredsKey     = "preds.count"
	ThresholdKey = "preds.threshold"
)

// Error context.
const (
	ErrorCodeKey  = "error.code"
	ErrorTypeKey  = "error.type"
	SuggestionKey = "error.suggestion"
)

// Hyperparameters.
const (
	HyperParamsKey  = "model.hyperparams"
	LearningRateKey = "hyperparams.learning_rate"
	NeighborsKey    = "hyperparams.n_neighbors"
	MetricKey       = "hyperparams.metric"
	AlphaKey        = "hyperparams.alpha"
	RandomSeedKey   = "config.random_seed"
)

// Standard attribute values.
const (
	OperationFit          = "fit"
	OperationPredict      = "predict"
	OperationTransform    = "transform"
	OperationFitTransform = "fit_transform"
	OperationScore        = "score"

	PhaseTraining  = "training"
	PhaseInference = "inference"

	ErrorNotFitted         = "NOT_FITTED"
	ErrorDimensionMismatch = "DIMENSION_MISMATCH"
	ErrorEmptyData         = "EMPTY_DATA"
	ErrorInvalidInput      = "INVALID_INPUT"
	ErrorConvergence       = "CONVERGENCE_FAILURE"
	ErrorNumerical         = "NUMERICAL_INSTABILITY"
)
