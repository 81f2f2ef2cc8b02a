package helper

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrepareModel(t *testing.T) {
	t.Run("Return existing model path without download", func(t *testing.T) {
		modelPath := filepath.Join("./models", "sentence-transformers_all-MiniLM-L6-v2")
		err := os.MkdirAll(modelPath, 0750)
		require.NoError(t, err)
		defer os.RemoveAll(modelPath)

		path, err := PrepareModel("sentence-transformers/all-MiniLM-L6-v2", "")
		assert.NoError(t, err)
		assert.Equal(t, modelPath, path)
	})

	t.Run("Sanitize model name with slash", func(t *testing.T) {
		expectedPath := filepath.Join("./models", "KnightsAnalytics_distilbert-NER")
		err := os.MkdirAll(expectedPath, 0750)
		require.NoError(t, err)
		defer os.RemoveAll(expectedPath)

		path, err := PrepareModel("KnightsAnalytics/distilbert-NER", "model.onnx")
		assert.NoError(t, err)
		assert.Equal(t, expectedPath, path)
	})

	t.Run("Model name without slash", func(t *testing.T) {
		expectedPath := filepath.Join("./models", "local-model")
		err := os.MkdirAll(expectedPath, 0750)
		require.NoError(t, err)
		defer os.RemoveAll(expectedPath)

		path, err := PrepareModel("local-model", "")
		assert.NoError(t, err)
		assert.Equal(t, expectedPath, path)
	})

	t.Run("Download missing model", func(t *testing.T) {
		modelName := "sentence-transformers/all-MiniLM-L6-v2"
		modelPath := filepath.Join("./models", "sentence-transformers_all-MiniLM-L6-v2")
		os.RemoveAll(modelPath)

		// Depends on network access, so only check the error shape on
		// failure.
		path, err := PrepareModel(modelName, "")
		if err != nil {
			assert.Contains(t, err.Error(), "failed to")
		} else {
			assert.DirExists(t, path)
		}
	})
}
