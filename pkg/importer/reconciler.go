package importer

import (
	"context"
	"strings"

	"github.com/Gobusters/ectologger"
	"github.com/asterhq/aster/internal/repositories/city"
	"github.com/asterhq/aster/internal/repositories/social"
	"github.com/asterhq/aster/internal/repositories/tag"
	"github.com/asterhq/aster/pkg/models"
	"github.com/asterhq/aster/pkg/tracing"
)

// socialFields maps dump tags to the identificators of the seeded
// socials_type rows, in the order handles are attached. A tag whose type
// row is not seeded is skipped rather than failing the record.
var socialFields = []string{
	FieldSkype,
	FieldICQ,
	FieldFB,
	FieldOD,
	FieldInsta,
	FieldTW,
	FieldVK,
	FieldEmail,
	FieldTG,
	FieldTikTok,
	FieldOF,
	FieldPhone,
}

// Reconciler resolves the referenced entities of a record against the
// database, creating cities, tags and social handles on first sight.
type Reconciler struct {
	cities  city.CityRepository
	tags    tag.TagRepository
	socials social.SocialRepository
	logger  ectologger.Logger
}

func NewReconciler(cities city.CityRepository, tags tag.TagRepository, socials social.SocialRepository, logger ectologger.Logger) *Reconciler {
	return &Reconciler{
		cities:  cities,
		tags:    tags,
		socials: socials,
		logger:  logger,
	}
}

// ResolveCity returns the city ID for the record's city tag, creating the
// city when unseen. A blank or missing tag yields nil.
func (r *Reconciler) ResolveCity(ctx context.Context, rec *RawRecord) (*int, error) {
	ctx, span := tracing.StartSpan(ctx, "Reconciler.ResolveCity")
	defer span.End()

	name, _ := rec.First(FieldCity)
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}

	resolved, err := r.cities.FindOrCreate(ctx, name)
	if err != nil {
		return nil, err
	}

	return &resolved.ID, nil
}

// ResolveTags returns the tag IDs for the record's comma-separated tags
// value, creating unseen tags.
func (r *Reconciler) ResolveTags(ctx context.Context, rec *RawRecord) ([]int, error) {
	ctx, span := tracing.StartSpan(ctx, "Reconciler.ResolveTags")
	defer span.End()

	value, _ := rec.First(FieldTags)
	names := SplitTags(value)
	if len(names) == 0 {
		return nil, nil
	}

	ids := make([]int, 0, len(names))
	for _, name := range names {
		resolved, err := r.tags.FindOrCreate(ctx, name)
		if err != nil {
			return nil, err
		}
		ids = append(ids, resolved.ID)
	}

	return ids, nil
}

// ResolveSocials returns the social handle IDs for every populated social
// tag of the record, creating unseen handles. A tag may repeat; each
// distinct value becomes its own handle, with repeats of the same value
// collapsed.
func (r *Reconciler) ResolveSocials(ctx context.Context, rec *RawRecord) ([]int, error) {
	ctx, span := tracing.StartSpan(ctx, "Reconciler.ResolveSocials")
	defer span.End()

	var ids []int

	for _, field := range socialFields {
		values := rec.All(field)
		if len(values) == 0 {
			continue
		}

		seen := make(map[string]bool, len(values))
		var socialType *models.SocialType

		for _, value := range values {
			value = strings.TrimSpace(value)
			if value == "" || seen[value] {
				continue
			}
			seen[value] = true

			if socialType == nil {
				resolved, err := r.socials.GetTypeByIdentificator(ctx, field)
				if err != nil {
					return nil, err
				}
				if resolved == nil {
					r.logger.WithContext(ctx).WithFields(map[string]any{
						"identificator": field,
					}).Debug("social type not seeded, skipping handle")
					break
				}
				socialType = resolved
			}

			resolved, err := r.socials.FindOrCreate(ctx, socialType.ID, value)
			if err != nil {
				return nil, err
			}
			ids = append(ids, resolved.ID)
		}
	}

	return ids, nil
}
