package account

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/asterhq/aster/internal/repositories/account"
	"github.com/asterhq/aster/internal/repositories/city"
	"github.com/asterhq/aster/internal/repositories/comment"
	"github.com/asterhq/aster/internal/repositories/rating"
	"github.com/asterhq/aster/internal/repositories/social"
	"github.com/asterhq/aster/internal/repositories/tag"
	"github.com/asterhq/aster/pkg/events"
	"github.com/asterhq/aster/pkg/importer"
	"github.com/asterhq/aster/pkg/models"
	"github.com/asterhq/aster/pkg/storage"
	"github.com/asterhq/aster/pkg/tracing"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var validate = validator.New()

// Media slots are numbered file names inside the account's directory:
// images occupy 1..199, videos 200 and up.
const videoSlotStart = 200

// Register registers account routes
func Register(g *echo.Group) {
	g.GET("/accounts", List)
	g.GET("/account", Get)
	g.PUT("/update-account", Update)
	g.POST("/update-account-date", UpdateDate)
	g.POST("/update-photo", UpdatePhoto)
	g.DELETE("/delete-account", Delete)
	g.POST("/account-edit-media", EditMedia)
}

// List pages through the directory with optional search and filters
func List(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "account_handler.List")
	defer span.End()

	filter := models.AccountFilter{Search: c.QueryParam("search")}
	if v, err := strconv.Atoi(c.QueryParam("city_id")); err == nil {
		filter.CityID = &v
	}
	if v, err := strconv.Atoi(c.QueryParam("tag_id")); err == nil {
		filter.TagID = &v
	}
	if v, err := time.Parse("2006-01-02", c.QueryParam("date_from")); err == nil {
		filter.DateFrom = &v
	}
	if v, err := time.Parse("2006-01-02", c.QueryParam("date_to")); err == nil {
		filter.DateTo = &v
	}
	filter.Page, _ = strconv.Atoi(c.QueryParam("page"))
	filter.PageSize, _ = strconv.Atoi(c.QueryParam("page_size"))
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}

	ctx, repo, err := ectoinject.GetContext[*account.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	items, totalCount, err := repo.List(ctx, filter)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to list accounts")
	}

	return c.JSON(http.StatusOK, models.AccountListResponse{
		Items:      items,
		TotalCount: totalCount,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
	})
}

// Get returns the full profile page aggregate for one account
func Get(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "account_handler.Get")
	defer span.End()

	id, err := strconv.Atoi(c.QueryParam("id"))
	if err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "id is required")
	}

	ctx, repo, err := ectoinject.GetContext[*account.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	acc, err := repo.GetByID(ctx, id)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get account")
	}
	if acc == nil {
		return httperror.NewHTTPError(http.StatusNotFound, "account not found")
	}

	detail := models.AccountDetail{Account: *acc, Tags: []models.Tag{}, Socials: []models.Social{}, Rating: []models.Rating{}}

	if acc.CityID != nil {
		ctx2, cities, err := ectoinject.GetContext[*city.Repository](ctx)
		if err != nil {
			return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
		}
		ctx = ctx2
		if detail.City, err = cities.GetByID(ctx, *acc.CityID); err != nil {
			return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get city")
		}
	}

	ctx, tags, err := ectoinject.GetContext[*tag.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}
	if detail.Tags, err = tags.GetForAccount(ctx, id); err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get tags")
	}

	ctx, socials, err := ectoinject.GetContext[*social.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}
	if detail.Socials, err = socials.GetForAccount(ctx, id); err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get socials")
	}

	ctx, ratings, err := ectoinject.GetContext[*rating.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}
	if detail.Rating, err = ratings.GetForAccount(ctx, id); err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get rating")
	}

	ctx, comments, err := ectoinject.GetContext[*comment.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}
	flat, err := comments.ListForAccount(ctx, id)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get comments")
	}
	detail.Comments = models.BuildCommentTree(flat)

	ctx, store, err := ectoinject.GetContext[storage.Store](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get storage")
	}
	names, err := store.ListFiles(ctx, acc.Identificator)
	if err != nil {
		// media listing is decorative on the profile page
		names = nil
	}
	detail.Files = make([]string, 0, len(names))
	for _, name := range names {
		detail.Files = append(detail.Files, store.PublicURL(path.Join(acc.Identificator, name)))
	}

	return c.JSON(http.StatusOK, detail)
}

// Update edits the account name, city and tag set
func Update(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "account_handler.Update")
	defer span.End()

	var req models.UpdateAccountRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, repo, err := ectoinject.GetContext[*account.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	existing, err := repo.GetByID(ctx, req.ID)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get account")
	}
	if existing == nil {
		return httperror.NewHTTPError(http.StatusNotFound, "account not found")
	}

	var cityID *int
	if strings.TrimSpace(req.City) != "" {
		ctx2, cities, err := ectoinject.GetContext[*city.Repository](ctx)
		if err != nil {
			return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
		}
		ctx = ctx2
		resolved, err := cities.FindOrCreate(ctx, strings.TrimSpace(req.City))
		if err != nil {
			return httperror.NewHTTPError(http.StatusInternalServerError, "failed to resolve city")
		}
		cityID = &resolved.ID
	}

	if err := repo.Update(ctx, req.ID, req.Name, cityID); err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update account")
	}

	ctx, tags, err := ectoinject.GetContext[*tag.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}
	tagIDs := []int{}
	for _, name := range importer.SplitTags(req.Tags) {
		resolved, err := tags.FindOrCreate(ctx, name)
		if err != nil {
			return httperror.NewHTTPError(http.StatusInternalServerError, "failed to resolve tag")
		}
		tagIDs = append(tagIDs, resolved.ID)
	}
	if err := tags.ReplaceForAccount(ctx, req.ID, tagIDs); err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update tags")
	}

	updated, err := repo.GetByID(ctx, req.ID)
	if err != nil || updated == nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to reload account")
	}

	if ctx2, emitter, err := ectoinject.GetContext[*events.Emitter](ctx); err == nil {
		ctx = ctx2
		emitter.AccountUpdated(ctx, updated)
	}

	return c.JSON(http.StatusOK, updated)
}

// UpdateDate dates an account (making it visible) or clears the date
func UpdateDate(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "account_handler.UpdateDate")
	defer span.End()

	var req models.UpdateAccountDateRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var date *time.Time
	switch {
	case req.Date == nil:
		now := time.Now().UTC()
		date = &now
	case *req.Date == "" || *req.Date == "null":
		date = nil
	default:
		parsed, err := time.Parse("2006-01-02", *req.Date)
		if err != nil {
			return httperror.NewHTTPError(http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		}
		date = &parsed
	}

	ctx, repo, err := ectoinject.GetContext[*account.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	if err := repo.UpdateDate(ctx, req.ID, date); err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update account date")
	}

	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

// UpdatePhoto stores the profile preview image
func UpdatePhoto(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "account_handler.UpdatePhoto")
	defer span.End()

	id, err := strconv.Atoi(c.FormValue("id"))
	if err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "id is required")
	}

	fileHeader, err := c.FormFile("photo")
	if err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "photo is required")
	}
	file, err := fileHeader.Open()
	if err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "photo is required")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to read photo")
	}

	ctx, repo, err := ectoinject.GetContext[*account.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	if err := repo.UpdatePhoto(ctx, id, data); err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update photo")
	}

	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

// Delete removes an account along with its stored media
func Delete(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "account_handler.Delete")
	defer span.End()

	id, err := strconv.Atoi(c.QueryParam("id"))
	if err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "id is required")
	}

	ctx, repo, err := ectoinject.GetContext[*account.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	existing, err := repo.GetByID(ctx, id)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get account")
	}
	if existing == nil {
		return httperror.NewHTTPError(http.StatusNotFound, "account not found")
	}

	if err := repo.Delete(ctx, id); err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete account")
	}

	// media cleanup is best-effort; orphan files do not block the delete
	if ctx2, store, err := ectoinject.GetContext[storage.Store](ctx); err == nil {
		ctx = ctx2
		if names, err := store.ListFiles(ctx, existing.Identificator); err == nil {
			for _, name := range names {
				_ = store.DeleteFile(ctx, path.Join(existing.Identificator, name))
			}
		}
	}

	if ctx2, emitter, err := ectoinject.GetContext[*events.Emitter](ctx); err == nil {
		ctx = ctx2
		emitter.AccountDeleted(ctx, existing.ID, existing.Identificator)
	}

	return c.NoContent(http.StatusNoContent)
}

// EditMedia uploads and deletes files in the account's media directory.
// Uploaded files land in the next free numbered slot for their kind.
func EditMedia(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "account_handler.EditMedia")
	defer span.End()

	id, err := strconv.Atoi(c.FormValue("id"))
	if err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "id is required")
	}

	ctx, repo, err := ectoinject.GetContext[*account.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	acc, err := repo.GetByID(ctx, id)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get account")
	}
	if acc == nil {
		return httperror.NewHTTPError(http.StatusNotFound, "account not found")
	}

	ctx, store, err := ectoinject.GetContext[storage.Store](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get storage")
	}

	form, err := c.MultipartForm()
	if err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid multipart form")
	}

	dir := acc.Identificator

	for _, name := range form.Value["delete"] {
		name = path.Base(strings.TrimSpace(name))
		if name == "" || name == "." {
			continue
		}
		if err := store.DeleteFile(ctx, path.Join(dir, name)); err != nil {
			return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete file")
		}
	}

	existing, err := store.ListFiles(ctx, dir)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to list files")
	}
	nextImage := nextSlot(existing, 1, videoSlotStart-1)
	nextVideo := nextSlot(existing, videoSlotStart, 0)

	for _, header := range form.File["images"] {
		if err := uploadSlot(ctx, store, dir, nextImage, header); err != nil {
			return httperror.NewHTTPError(http.StatusInternalServerError, "failed to upload image")
		}
		nextImage++
	}
	for _, header := range form.File["videos"] {
		if err := uploadSlot(ctx, store, dir, nextVideo, header); err != nil {
			return httperror.NewHTTPError(http.StatusInternalServerError, "failed to upload video")
		}
		nextVideo++
	}

	names, err := store.ListFiles(ctx, dir)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to list files")
	}
	files := make([]string, 0, len(names))
	for _, name := range names {
		files = append(files, store.PublicURL(path.Join(dir, name)))
	}

	return c.JSON(http.StatusOK, map[string]any{"success": true, "files": files})
}

func uploadSlot(ctx context.Context, store storage.Store, dir string, slot int, header *multipart.FileHeader) error {
	file, err := header.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return err
	}

	name := strconv.Itoa(slot) + strings.ToLower(path.Ext(header.Filename))
	return store.UploadFile(ctx, path.Join(dir, name), data)
}

// nextSlot returns the first number after the highest occupied slot in
// [start, max]; max 0 means unbounded.
func nextSlot(names []string, start, max int) int {
	next := start
	for _, name := range names {
		base := strings.TrimSuffix(name, path.Ext(name))
		n, err := strconv.Atoi(base)
		if err != nil || n < start {
			continue
		}
		if max > 0 && n > max {
			continue
		}
		if n >= next {
			next = n + 1
		}
	}
	return next
}
