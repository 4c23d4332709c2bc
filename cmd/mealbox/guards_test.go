package main

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verspil/mealbox/internal/common"
	"github.com/verspil/mealbox/internal/model"
	"github.com/verspil/mealbox/internal/storage"
)

func testCmd(t *testing.T) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	return cmd
}

// seedProducts writes a minimal catalog so commands get past the
// empty-store gate.
func seedProducts(t *testing.T, dbPath string) {
	t.Helper()
	store, err := storage.NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	require.NoError(t, store.Migrate(ctx))
	require.NoError(t, store.SaveProducts(ctx, []model.Product{
		{ID: "p1", StoreID: 1, Name: "milk", Concept: "milk"},
	}))
}

func TestRunRankRejectsUnknownStrategy(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.Set("rank.strategy", "alphabetical")

	err := runRank(testCmd(t), nil)
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
}

func TestRunRankRequiresStores(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.Set("database.path", filepath.Join(t.TempDir(), "mealbox.db"))

	err := runRank(testCmd(t), nil)
	assert.ErrorIs(t, err, common.ErrNoStores)
}

func TestRunMatchRequiresRecipes(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	dbPath := filepath.Join(t.TempDir(), "mealbox.db")
	seedProducts(t, dbPath)
	viper.Set("database.path", dbPath)

	err := runMatch(testCmd(t), nil)
	assert.ErrorIs(t, err, common.ErrNoRecipes)
}

func TestRunImportRequiresInput(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	err := runImport(testCmd(t), nil)
	require.Error(t, err)

	var uerr *common.UserError
	assert.True(t, errors.As(err, &uerr))
	assert.ErrorIs(t, err, common.ErrMissingConfig)
}

func TestInitConfigMissingExplicitFile(t *testing.T) {
	viper.Reset()
	t.Cleanup(func() {
		viper.Reset()
		cfgFile = ""
	})

	cfgFile = filepath.Join(t.TempDir(), "absent.yaml")
	err := initConfig(nil, nil)
	assert.ErrorIs(t, err, common.ErrMissingConfig)
}
