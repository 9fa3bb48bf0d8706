package catalog

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccumulator_DeduplicatesTagsByName(t *testing.T) {
	t.Parallel()

	acc := NewAccumulator()
	acc.Add(EntityRow{ExternalID: 1, Name: "bulbasaur"}, []TagType{
		{Name: "grass", URL: "https://pokeapi.co/api/v2/type/12/"},
		{Name: "poison", URL: "https://pokeapi.co/api/v2/type/4/"},
	})
	acc.Add(EntityRow{ExternalID: 43, Name: "oddish"}, []TagType{
		{Name: "grass", URL: "https://pokeapi.co/api/v2/type/12"},
		{Name: "poison", URL: "https://pokeapi.co/api/v2/type/4/"},
	})
	acc.AddFailure(99)
	acc.AddFailure(3)

	batch := acc.Batch()

	assert.Len(t, batch.Entities, 2)
	assert.Equal(t, []TagType{
		{Name: "grass", URL: "https://pokeapi.co/api/v2/type/12/"},
		{Name: "poison", URL: "https://pokeapi.co/api/v2/type/4/"},
	}, batch.Tags)
	assert.Equal(t, []PendingAssociation{
		{EntityID: 1, TagName: "grass"},
		{EntityID: 1, TagName: "poison"},
		{EntityID: 43, TagName: "grass"},
		{EntityID: 43, TagName: "poison"},
	}, batch.Associations)
	assert.Equal(t, 2, acc.Succeeded())
	assert.Equal(t, []int{3, 99}, acc.FailedIDs())
}

func TestAccumulator_EveryAssociationResolvesAgainstItsTags(t *testing.T) {
	t.Parallel()

	acc := NewAccumulator()
	for i := 1; i <= 50; i++ {
		acc.Add(EntityRow{ExternalID: i}, []TagType{
			{Name: fmt.Sprintf("type-%d", i%7)},
			{Name: fmt.Sprintf("type-%d", i%3)},
		})
	}
	batch := acc.Batch()

	ids := make(map[string]int, len(batch.Tags))
	for i, tag := range batch.Tags {
		ids[tag.Name] = i + 1
	}
	resolved, err := ResolveAssociations(batch.Associations, ids)
	assert.NoError(t, err)
	assert.Len(t, resolved, len(batch.Associations))

	names := make(map[int]string, len(ids))
	for name, id := range ids {
		names[id] = name
	}
	for i, link := range resolved {
		assert.Equal(t, batch.Associations[i].TagName, names[link.TagTypeID])
	}
}

func TestAccumulator_BatchIsACopy(t *testing.T) {
	t.Parallel()

	acc := NewAccumulator()
	acc.Add(EntityRow{ExternalID: 1}, []TagType{{Name: "grass"}})
	batch := acc.Batch()
	batch.Tags[0].Name = "mutated"

	assert.Equal(t, "grass", acc.Batch().Tags[0].Name)
}

func TestPolicy_Classify(t *testing.T) {
	t.Parallel()

	spriteErr := fmt.Errorf("%w: pikachu", ErrSprite)
	fetchErr := fmt.Errorf("%w: boom", ErrFetch)

	strict := Policy{StrictSprites: true}
	lenient := Policy{}

	assert.Equal(t, ClassFatal, strict.Classify(spriteErr))
	assert.Equal(t, ClassSkip, lenient.Classify(spriteErr))
	assert.Equal(t, ClassSkip, strict.Classify(fetchErr))
	assert.Equal(t, ClassSkip, strict.Classify(errors.New("decode")))
	assert.Equal(t, ClassFatal, lenient.Classify(fmt.Errorf("fetch: %w", context.Canceled)))
	assert.Equal(t, ClassFatal, lenient.Classify(&UnresolvedTagError{TagName: "x"}))
	assert.Equal(t, "fatal", ClassFatal.String())
	assert.Equal(t, "skip", ClassSkip.String())
}
