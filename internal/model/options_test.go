package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerationOptionsStep_TemperatureClampsAtBounds(t *testing.T) {
	opts := DefaultGenerationOptions()
	opts.Temperature = 0
	require.Equal(t, 0.0, opts.Step(FieldTemperature, StepDecrease).Temperature)

	opts.Temperature = 2.0
	require.Equal(t, 2.0, opts.Step(FieldTemperature, StepIncrease).Temperature)
}

func TestGenerationOptionsStep_TwentyIncreasesReachMax(t *testing.T) {
	opts := DefaultGenerationOptions()
	for i := 0; i < 20; i++ {
		opts = opts.Step(FieldTemperature, StepIncrease)
		require.LessOrEqual(t, opts.Temperature, MaxTemperature)
	}
	require.Equal(t, 2.0, opts.Temperature)

	opts = DefaultGenerationOptions()
	for i := 0; i < 15; i++ {
		opts = opts.Step(FieldTemperature, StepIncrease)
	}
	require.Equal(t, 2.0, opts.Temperature)
}

func TestGenerationOptionsStep_TopPRounding(t *testing.T) {
	opts := DefaultGenerationOptions()
	opts = opts.Step(FieldTopP, StepIncrease)
	require.Equal(t, 0.95, opts.TopP)
	opts = opts.Step(FieldTopP, StepIncrease)
	require.Equal(t, 1.0, opts.TopP)
	opts = opts.Step(FieldTopP, StepIncrease)
	require.Equal(t, 1.0, opts.TopP)

	opts = DefaultGenerationOptions()
	for i := 0; i < 30; i++ {
		opts = opts.Step(FieldTopP, StepDecrease)
	}
	require.Equal(t, 0.0, opts.TopP)
}

func TestGenerationOptionsStep_MaxTokens(t *testing.T) {
	opts := DefaultGenerationOptions()
	require.Equal(t, 272, opts.Step(FieldMaxTokens, StepIncrease).MaxTokens)
	for i := 0; i < 5; i++ {
		opts = opts.Step(FieldMaxTokens, StepIncrease)
	}
	require.Equal(t, 336, opts.MaxTokens)

	opts.MaxTokens = 2040
	require.Equal(t, MaxMaxTokens, opts.Step(FieldMaxTokens, StepIncrease).MaxTokens)
	opts.MaxTokens = 10
	require.Equal(t, MinMaxTokens, opts.Step(FieldMaxTokens, StepDecrease).MaxTokens)
}

func TestGenerationOptionsStep_UnknownInputsAreNoop(t *testing.T) {
	opts := DefaultGenerationOptions()
	require.Equal(t, opts, opts.Step("frequency_penalty", StepIncrease))
	require.Equal(t, opts, opts.Step(FieldTopP, "sideways"))
	require.False(t, OptionField("seed").Valid())
	require.True(t, FieldMaxTokens.Valid())
	require.True(t, StepDecrease.Valid())
}
