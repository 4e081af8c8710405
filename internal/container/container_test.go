package container

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"exportdecl/database"
	"exportdecl/internal/config"
	"exportdecl/server/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSeed = `
brands:
  - brand_name: "RJ"
    reference_name: "Ride Japan"
known_names:
  - "Cup"
products:
  - product_name: "Cup"
    box_weight: 0.5
    box_size: "10x10x10"
`

func newTestContainer(t *testing.T) *Container {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	cfg := config.GetDefaults()
	cfg.Database.Path = filepath.Join(dir, "lookup.db")
	cfg.Storage.UploadDir = filepath.Join(dir, "uploads")
	cfg.Storage.ReportDir = filepath.Join(dir, "reports")
	cfg.Pipeline.GrossRatioFixed = 1.1
	cfg.SeedFile = filepath.Join(dir, "seed.yaml")
	require.NoError(t, os.WriteFile(cfg.SeedFile, []byte(testSeed), 0o644))
	require.NoError(t, os.MkdirAll(cfg.Storage.UploadDir, 0o755))

	c, err := NewContainer(cfg, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, c.Initialize(context.Background()))
	t.Cleanup(func() { _ = c.Shutdown(context.Background()) })
	return c
}

func TestNewContainer_NilConfig(t *testing.T) {
	_, err := NewContainer(nil, nil)
	assert.Error(t, err)
}

func TestContainer_InitializeSeedsAndServes(t *testing.T) {
	c := newTestContainer(t)
	ctx := context.Background()

	assert.True(t, c.IsInitialized())
	assert.Nil(t, c.Redis)
	assert.Nil(t, c.Postgres)
	assert.Error(t, c.Initialize(ctx))

	brand, err := c.LookupDB.GetBrandMappingByName(ctx, "RJ")
	require.NoError(t, err)
	assert.Equal(t, "Ride Japan", brand.ReferenceName)

	n, err := c.LookupDB.CountProductMappings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	rec := httptest.NewRecorder()
	c.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestContainer_PipelineEndToEnd(t *testing.T) {
	c := newTestContainer(t)
	ctx := context.Background()

	src := "TITLE,Maker,Pcs,Price,Total,Category,Origin,品番\n" +
		"Big Cup,RJ,2,400,800,雑貨,China,M1\n" +
		"Big Cup,RJ,1,400,400,雑貨,China,M2\n"
	path := filepath.Join(c.Config.Storage.UploadDir, "maker.csv")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))

	res, err := c.Pipeline.Run(ctx, []string{path})
	require.NoError(t, err)
	require.Len(t, res.Records, 1)

	rec := res.Records[0]
	assert.Equal(t, "Ride Japan", rec.Brand)
	assert.Equal(t, "Cup", rec.ProductName)
	assert.Equal(t, "3", rec.UnitCountTotal.String())
	assert.Equal(t, "M1, M2", rec.ModelSummary)
	require.NotNil(t, rec.NetWeight)
	assert.InDelta(t, 1.5, *rec.NetWeight, 1e-9)
	require.NotNil(t, rec.GrossWeight)
	assert.InDelta(t, 1.65, *rec.GrossWeight, 1e-9)

	gen, err := c.ReportService.Generate(ctx, services.GenerateRequest{FilePaths: []string{"maker.csv"}, Format: "csv"})
	require.NoError(t, err)
	assert.Equal(t, database.ReportStatusComplete, gen.Status)
	_, err = os.Stat(filepath.Join(c.Config.Storage.ReportDir, gen.Filename))
	assert.NoError(t, err)
}

func TestClauseRules(t *testing.T) {
	rules := ClauseRules([]config.ClauseRule{{Name: "lotion", Categories: []string{"ローション"}, Clause: "润滑液 非药用"}})
	require.Len(t, rules, 1)
	assert.Equal(t, "润滑液 非药用", rules[0].Clause)
	assert.Equal(t, []string{"ローション"}, rules[0].Categories)
}
