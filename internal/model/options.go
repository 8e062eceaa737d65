package model

import "math"

const (
	DefaultTemperature = 0.5
	DefaultTopP        = 0.9
	DefaultMaxTokens   = 256

	MinTemperature = 0.0
	MaxTemperature = 2.0
	MinTopP        = 0.0
	MaxTopP        = 1.0
	MinMaxTokens   = 1
	MaxMaxTokens   = 2048

	TemperatureStep = 0.1
	TopPStep        = 0.05
	MaxTokensStep   = 16
)

type OptionField string

const (
	FieldTemperature OptionField = "temperature"
	FieldTopP        OptionField = "top_p"
	FieldMaxTokens   OptionField = "max_tokens"
)

type StepDirection string

const (
	StepIncrease StepDirection = "increase"
	StepDecrease StepDirection = "decrease"
)

func (f OptionField) Valid() bool {
	switch f {
	case FieldTemperature, FieldTopP, FieldMaxTokens:
		return true
	}
	return false
}

func (d StepDirection) Valid() bool {
	return d == StepIncrease || d == StepDecrease
}

// GenerationOptions are the sampling settings sent to the generator for one
// chat session.
type GenerationOptions struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
	MaxTokens   int     `json:"max_tokens"`
}

func DefaultGenerationOptions() GenerationOptions {
	return GenerationOptions{
		Temperature: DefaultTemperature,
		TopP:        DefaultTopP,
		MaxTokens:   DefaultMaxTokens,
	}
}

// Step moves one field by its fixed step size and clamps the result. Unknown
// fields or directions leave the options untouched.
func (o GenerationOptions) Step(field OptionField, dir StepDirection) GenerationOptions {
	sign := 0
	switch dir {
	case StepIncrease:
		sign = 1
	case StepDecrease:
		sign = -1
	default:
		return o
	}
	switch field {
	case FieldTemperature:
		o.Temperature = round2(o.Temperature + float64(sign)*TemperatureStep)
	case FieldTopP:
		o.TopP = round2(o.TopP + float64(sign)*TopPStep)
	case FieldMaxTokens:
		o.MaxTokens += sign * MaxTokensStep
	}
	return o.Clamp()
}

func (o GenerationOptions) Clamp() GenerationOptions {
	o.Temperature = clampFloat(o.Temperature, MinTemperature, MaxTemperature)
	o.TopP = clampFloat(o.TopP, MinTopP, MaxTopP)
	if o.MaxTokens < MinMaxTokens {
		o.MaxTokens = MinMaxTokens
	}
	if o.MaxTokens > MaxMaxTokens {
		o.MaxTokens = MaxMaxTokens
	}
	return o
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
