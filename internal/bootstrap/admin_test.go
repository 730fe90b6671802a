package bootstrap

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamnest/teamnest/internal/domain/repository"
	"github.com/teamnest/teamnest/internal/security/password"
	"github.com/teamnest/teamnest/internal/store/memory"
)

func TestEnsurePlatformRole_Idempotent(t *testing.T) {
	ctx := context.Background()
	st := memory.New()

	r1, err := EnsurePlatformRole(ctx, st, "platform_admin")
	require.NoError(t, err)
	assert.Equal(t, "PLATFORM_ADMIN", r1.Name)
	assert.Equal(t, repository.ScopePlatform, r1.Scope)
	assert.Nil(t, r1.TenantID)

	r2, err := EnsurePlatformRole(ctx, st, "PLATFORM_ADMIN")
	require.NoError(t, err)
	assert.Equal(t, r1.ID, r2.ID)

	all, err := st.Roles().List(ctx, repository.Unscoped())
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestCreatePlatformAdmin(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	h, err := password.NewHasher(password.Params{Memory: 8 * 1024, Time: 1, Parallelism: 1, KeyLen: 32})
	require.NoError(t, err)

	cfg := AdminConfig{
		Store:    st,
		Hasher:   h,
		Policy:   password.DefaultPolicy,
		Role:     "PLATFORM_ADMIN",
		Email:    "Root@TeamNest.test",
		Password: "correct-horse-battery",
	}
	u, err := CreatePlatformAdmin(ctx, cfg)
	require.NoError(t, err)
	assert.Nil(t, u.TenantID)
	assert.Equal(t, "root@teamnest.test", u.Email)
	assert.Equal(t, []string{"PLATFORM_ADMIN"}, u.RoleNames())
	assert.True(t, h.Verify("correct-horse-battery", u.PasswordHash))

	_, err = CreatePlatformAdmin(ctx, cfg)
	assert.ErrorIs(t, err, ErrAdminExists)

	cfg.Email, cfg.Password = "other@teamnest.test", "short"
	_, err = CreatePlatformAdmin(ctx, cfg)
	assert.Error(t, err)
}

func TestPromptAdminCredentials(t *testing.T) {
	var out bytes.Buffer
	email, pass, err := PromptAdminCredentials(strings.NewReader("root@teamnest.test\ns3cret-pass\ns3cret-pass\n"), &out)
	require.NoError(t, err)
	assert.Equal(t, "root@teamnest.test", email)
	assert.Equal(t, "s3cret-pass", pass)

	_, _, err = PromptAdminCredentials(strings.NewReader("root@teamnest.test\na\nb\n"), &out)
	assert.Error(t, err)

	_, _, err = PromptAdminCredentials(strings.NewReader("not-an-email\n"), &out)
	assert.Error(t, err)
}
