package repositories

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/LunaGrandjean/LVMH-project/pkg/apperrors"
	"github.com/LunaGrandjean/LVMH-project/pkg/models"
)

const sampleTable = `name,country,city,category,employees,certifications,gots_expiry,grs_expiry,rwas_expiry,wrap_expiry,zdhc_expiry,last_audit_date,audit_status,next_audit_date,has_incidents,incident_type,geopolitical_risk,environmental_risk,compliance_risk,buyer
Lanificio Biella,Italy,Biella,Wool,120.0,GOTS,2025-09-30,,None,NaT,,2024-11-02,Passed,2025-11-02,False,,Low,Low,Low,Anna
Dhaka Denim,Bangladesh,Dhaka,Denim,800,"GRS, ZDHC",,2025-01-15 00:00:00,,,not-a-date,2024-06-01,Failed,,True,,High,High,Medium,Marc
Porto Leather,Portugal,Porto,Leather,,,,,,,,,,,False,Child labour allegation,Low,Medium,Low,
,Nowhere,,,,,,,,,,,,,,,,,,
`

func writeTable(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "suppliers.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestSupplierRepository_Load(t *testing.T) {
	repo := NewSupplierRepository(writeTable(t, sampleTable), zap.NewNop())

	suppliers, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, suppliers, 3, "row without a name is skipped")

	biella := suppliers[0]
	assert.Equal(t, "Lanificio Biella", biella.Name)
	assert.Equal(t, 120, biella.Employees)
	assert.Equal(t, []models.CertificationKind{models.CertGOTS}, biella.HeldCertifications())
	assert.Equal(t, time.Date(2025, 9, 30, 0, 0, 0, 0, time.UTC), biella.Certifications[models.CertGOTS])
	assert.Equal(t, models.AuditPassed, biella.AuditStatus)
	require.NotNil(t, biella.NextAuditDate)
	assert.False(t, biella.HasIncidents)
	assert.Equal(t, "Anna", biella.Extra["buyer"])

	dhaka := suppliers[1]
	assert.Equal(t, []models.CertificationKind{models.CertGRS}, dhaka.HeldCertifications(), "bad ZDHC date is treated as absent")
	assert.Equal(t, time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), dhaka.Certifications[models.CertGRS])
	assert.Nil(t, dhaka.NextAuditDate)
	assert.True(t, dhaka.HasIncidents)
	assert.Equal(t, models.DefaultIncidentType, dhaka.IncidentType, "flag without type gets the default type")

	porto := suppliers[2]
	assert.True(t, porto.HasIncidents, "type without flag sets the flag")
	assert.Equal(t, "Child labour allegation", porto.IncidentType)
	assert.Empty(t, porto.HeldCertifications())
}

func TestSupplierRepository_LoadErrors(t *testing.T) {
	missing := NewSupplierRepository(filepath.Join(t.TempDir(), "absent.csv"), zap.NewNop())
	_, err := missing.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load supplier table")
	var tableErr *apperrors.TableError
	require.ErrorAs(t, err, &tableErr)
	assert.Equal(t, "load", tableErr.Op)
	assert.ErrorIs(t, err, os.ErrNotExist)

	noName := NewSupplierRepository(writeTable(t, "country,city\nItaly,Prato\n"), zap.NewNop())
	_, err = noName.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `missing required column "name"`)

	empty := NewSupplierRepository(writeTable(t, ""), zap.NewNop())
	_, err = empty.Load(context.Background())
	require.Error(t, err)
}

func TestSupplierRepository_SaveRoundTrip(t *testing.T) {
	path := writeTable(t, sampleTable)
	repo := NewSupplierRepository(path, zap.NewNop())
	ctx := context.Background()

	suppliers, err := repo.Load(ctx)
	require.NoError(t, err)

	suppliers[0].SetCertification(models.CertRWS, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	suppliers[1].ClearIncident()
	require.NoError(t, repo.Save(ctx, suppliers))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "None")
	assert.True(t, strings.HasPrefix(string(raw), strings.Join(SupplierColumns, ",")+",buyer\n"))

	reloaded, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, reloaded, 3)
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), reloaded[0].Certifications[models.CertRWS])
	assert.False(t, reloaded[1].HasIncidents)
	assert.Empty(t, reloaded[1].IncidentType)
	assert.Equal(t, suppliers[2].IncidentType, reloaded[2].IncidentType)
	assert.Equal(t, "Marc", reloaded[1].Extra["buyer"])

	leftovers, err := filepath.Glob(filepath.Join(filepath.Dir(path), ".suppliers.csv.*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers, "temp file is renamed into place")
}

func TestSupplierRepository_SaveKeepsFileMode(t *testing.T) {
	path := writeTable(t, sampleTable)
	require.NoError(t, os.Chmod(path, 0o640))
	repo := NewSupplierRepository(path, zap.NewNop())
	ctx := context.Background()

	suppliers, err := repo.Load(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, suppliers))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())
}

func TestParseBool(t *testing.T) {
	for _, v := range []string{"True", "true", "1", "YES", " t "} {
		assert.True(t, ParseBool(v), v)
	}
	for _, v := range []string{"False", "0", "", "no", "maybe"} {
		assert.False(t, ParseBool(v), v)
	}
	assert.Equal(t, "True", FormatBool(true))
	assert.Equal(t, "False", FormatBool(false))
}
