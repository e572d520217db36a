package server

import (
	"net/http"
	"testing"

	"chapel/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postIDs(posts []models.Post) []string {
	ids := make([]string, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	return ids
}

func TestGetPosts_NeverReturnsDrafts(t *testing.T) {
	env := newTestEnv(t)
	env.seedPost(t, "p1", true)
	env.seedPost(t, "p2", false)
	adminToken, _ := env.admin(t, "admin@x.com")

	for _, token := range []string{"", adminToken} {
		resp, data := env.do(t, http.MethodGet, "/api/posts", token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, []string{"p1"}, postIDs(decode[[]models.Post](t, data)))
	}

	resp, _ := env.do(t, http.MethodGet, "/api/posts/p2", adminToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = env.do(t, http.MethodGet, "/api/posts/p1", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGetPosts_CategoryFilter(t *testing.T) {
	env := newTestEnv(t)
	env.seedPost(t, "p1", true)

	resp, data := env.do(t, http.MethodGet, "/api/posts?category=meditation", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[[]models.Post](t, data))

	resp, _ = env.do(t, http.MethodGet, "/api/posts?category=sports", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPostLifecycle(t *testing.T) {
	env := newTestEnv(t)
	token, adminID := env.admin(t, "admin@x.com")

	resp, data := env.do(t, http.MethodPost, "/api/admin/posts", token, fiber.Map{
		"title": "Paix", "content": "Texte", "excerpt": "Court", "category": models.CategoryMeditation,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))
	created := decode[models.Post](t, data)
	assert.False(t, created.Published)
	assert.Equal(t, adminID, created.AuthorID)
	assert.Equal(t, "Pasteur", created.AuthorName)

	resp, data = env.do(t, http.MethodGet, "/api/posts", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[[]models.Post](t, data))

	resp, data = env.do(t, http.MethodPatch, "/api/admin/posts/"+created.ID, token, fiber.Map{"published": true})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	assert.True(t, decode[models.Post](t, data).Published)

	resp, data = env.do(t, http.MethodGet, "/api/posts", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{created.ID}, postIDs(decode[[]models.Post](t, data)))

	resp, _ = env.do(t, http.MethodDelete, "/api/admin/posts/"+created.ID, token, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, data = env.do(t, http.MethodGet, "/api/admin/audit?target_id="+created.ID, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var actions []string
	for _, e := range decode[[]models.ModerationEvent](t, data) {
		actions = append(actions, e.Action)
	}
	assert.Equal(t, []string{models.ActionPostDeleted, models.ActionPostPublished, models.ActionPostCreated}, actions)
}

func TestCreatePost_Validation(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.admin(t, "admin@x.com")

	resp, data := env.do(t, http.MethodPost, "/api/admin/posts", token, fiber.Map{"title": "Sans contenu"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, models.CodeValidation, decode[models.ErrorResponse](t, data).Code)
}

func TestDeletePost_MissingIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.admin(t, "admin@x.com")

	resp, data := env.do(t, http.MethodDelete, "/api/admin/posts/missing-id", token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, models.CodeNotFound, decode[models.ErrorResponse](t, data).Code)
}

func TestSetRole_PromotedUserSeesDrafts(t *testing.T) {
	env := newTestEnv(t)
	env.seedPost(t, "p1", true)
	env.seedPost(t, "p2", false)
	adminToken, _ := env.admin(t, "admin@x.com")
	userToken, userID := env.signup(t, "u1@x.com", "Fidèle")

	resp, _ := env.do(t, http.MethodGet, "/api/admin/posts", userToken, nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, data := env.do(t, http.MethodPatch, "/api/profiles/"+userID+"/role", adminToken, fiber.Map{"role": "admin"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	assert.Equal(t, models.RoleAdmin, decode[models.Profile](t, data).Role)

	resp, data = env.do(t, http.MethodGet, "/api/admin/posts", userToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.ElementsMatch(t, []string{"p1", "p2"}, postIDs(decode[[]models.Post](t, data)))
}

func TestSetRole_LastAdminCannotBeDemoted(t *testing.T) {
	env := newTestEnv(t)
	token, adminID := env.admin(t, "admin@x.com")

	resp, data := env.do(t, http.MethodPatch, "/api/profiles/"+adminID+"/role", token, fiber.Map{"role": "user"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, models.CodeConflict, decode[models.ErrorResponse](t, data).Code)

	resp, _ = env.do(t, http.MethodPatch, "/api/profiles/"+adminID+"/role", token, fiber.Map{"role": "pope"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestProfiles(t *testing.T) {
	env := newTestEnv(t)
	adminToken, adminID := env.admin(t, "admin@x.com")
	userToken, userID := env.signup(t, "u1@x.com", "Fidèle")

	resp, data := env.do(t, http.MethodPatch, "/api/profiles/me", userToken, fiber.Map{"full_name": "  Marie  "})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	prof := decode[models.Profile](t, data)
	assert.Equal(t, "Marie", prof.DisplayName())

	resp, _ = env.do(t, http.MethodPatch, "/api/profiles/me", userToken, fiber.Map{"role": "admin"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = env.do(t, http.MethodGet, "/api/profiles/"+adminID, userToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = env.do(t, http.MethodGet, "/api/profiles/"+userID, adminToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = env.do(t, http.MethodGet, "/api/profiles", userToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, data = env.do(t, http.MethodGet, "/api/profiles", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]models.Profile](t, data), 2)
}
