package feedback

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func storedTagNames(t *testing.T, service *Service, id string) []string {
	t.Helper()
	detail, err := service.Load(context.Background(), id)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	return detail.Tags
}

func TestLabelUpdatesOnlyLabelFields(t *testing.T) {
	db := openTestDatabase(t)
	seedFeedback(t, db)
	service := newTestService(t, db)

	var before HumanFeedback
	if err := db.Where("id = ?", "fb-1").Take(&before).Error; err != nil {
		t.Fatalf("failed to load sample: %v", err)
	}

	result, err := service.Label(context.Background(), "fb-1", LabelInput{
		Quality: intPtr(4),
		Tags:    []string{"helpful", "concise"},
		NSFW:    false,
	})
	if err != nil {
		t.Fatalf("label failed: %v", err)
	}
	if !reflect.DeepEqual(result.Added, []string{"helpful", "concise"}) {
		t.Fatalf("unexpected added tags %v", result.Added)
	}
	if !reflect.DeepEqual(result.Removed, []string{"creative"}) {
		t.Fatalf("unexpected removed tags %v", result.Removed)
	}

	var after HumanFeedback
	if err := db.Where("id = ?", "fb-1").Take(&after).Error; err != nil {
		t.Fatalf("failed to reload sample: %v", err)
	}
	if after.Quality == nil || *after.Quality != 4 {
		t.Fatalf("expected quality 4, got %v", after.Quality)
	}
	if after.NSFW {
		t.Fatalf("expected nsfw to be cleared")
	}
	if after.NumID != before.NumID || after.ModelName != before.ModelName || !after.CreatedAt.Equal(before.CreatedAt) {
		t.Fatalf("unexpected change to unlabeled fields: before %+v after %+v", before, after)
	}
	if after.ModelID == nil || *after.ModelID != "model-1" {
		t.Fatalf("expected model relation to be preserved, got %v", after.ModelID)
	}

	tags := storedTagNames(t, service, "fb-1")
	if !reflect.DeepEqual(tags, []string{"concise", "helpful"}) {
		t.Fatalf("unexpected stored tags %v", tags)
	}

	var messageCount int64
	if err := db.Model(&Message{}).Where("human_feedback_id = ?", "fb-1").Count(&messageCount).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if messageCount != 3 {
		t.Fatalf("expected messages to be untouched, got %d", messageCount)
	}

	if tags := storedTagNames(t, service, "fb-2"); len(tags) != 0 {
		t.Fatalf("expected other sample to remain untagged, got %v", tags)
	}
}

func TestLabelIsIdempotent(t *testing.T) {
	db := openTestDatabase(t)
	seedFeedback(t, db)
	service := newTestService(t, db)
	input := LabelInput{Quality: intPtr(5), Tags: []string{"Creative ", "coding", "coding"}, NSFW: true}

	first, err := service.Label(context.Background(), "fb-1", input)
	if err != nil {
		t.Fatalf("first label failed: %v", err)
	}
	if !reflect.DeepEqual(first.Added, []string{"coding"}) || len(first.Removed) != 0 {
		t.Fatalf("unexpected first diff: added %v removed %v", first.Added, first.Removed)
	}

	second, err := service.Label(context.Background(), "fb-1", input)
	if err != nil {
		t.Fatalf("second label failed: %v", err)
	}
	if len(second.Added) != 0 || len(second.Removed) != 0 {
		t.Fatalf("expected empty diff on reapply: added %v removed %v", second.Added, second.Removed)
	}

	var tagCount int64
	if err := db.Model(&Tag{}).Count(&tagCount).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if tagCount != 2 {
		t.Fatalf("expected tag rows to be reused, got %d", tagCount)
	}
}

func TestLabelClearsQuality(t *testing.T) {
	db := openTestDatabase(t)
	seedFeedback(t, db)
	service := newTestService(t, db)

	if _, err := service.Label(context.Background(), "fb-1", LabelInput{}); err != nil {
		t.Fatalf("label failed: %v", err)
	}
	var after HumanFeedback
	if err := db.Where("id = ?", "fb-1").Take(&after).Error; err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if after.Quality != nil {
		t.Fatalf("expected quality to be cleared, got %d", *after.Quality)
	}
	if tags := storedTagNames(t, service, "fb-1"); len(tags) != 0 {
		t.Fatalf("expected all tags removed, got %v", tags)
	}
}

func TestLabelRejectsInvalidInput(t *testing.T) {
	db := openTestDatabase(t)
	seedFeedback(t, db)
	service := newTestService(t, db)

	testCases := []struct {
		name  string
		input LabelInput
	}{
		{name: "quality-too-high", input: LabelInput{Quality: intPtr(6)}},
		{name: "quality-zero", input: LabelInput{Quality: intPtr(0)}},
		{name: "tag-too-long", input: LabelInput{Tags: []string{"this-tag-name-is-far-too-long-to-be-stored-in-the-tags-table-column"}}},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			_, err := service.Label(context.Background(), "fb-1", testCase.input)
			if !errors.Is(err, ErrInvalidLabel) {
				t.Fatalf("expected ErrInvalidLabel, got %v", err)
			}
		})
	}

	var after HumanFeedback
	if err := db.Where("id = ?", "fb-1").Take(&after).Error; err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if after.Quality == nil || *after.Quality != 2 || !after.NSFW {
		t.Fatalf("expected rejected labels to leave the sample untouched, got %+v", after)
	}
}

func TestLabelUnknownSample(t *testing.T) {
	db := openTestDatabase(t)
	seedFeedback(t, db)
	service := newTestService(t, db)

	_, err := service.Label(context.Background(), "missing", LabelInput{Tags: []string{"helpful"}})
	if !errors.Is(err, ErrFeedbackNotFound) {
		t.Fatalf("expected ErrFeedbackNotFound, got %v", err)
	}
	var tagCount int64
	if err := db.Model(&Tag{}).Where("name = ?", "helpful").Count(&tagCount).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if tagCount != 0 {
		t.Fatalf("expected no tag rows for rejected label")
	}
}

func TestDiffTags(t *testing.T) {
	current := []Tag{{ID: 1, Name: "b"}, {ID: 2, Name: "a"}, {ID: 3, Name: "keep"}}
	added, removed := diffTags(current, []string{"keep", "new"})
	if !reflect.DeepEqual(added, []string{"new"}) {
		t.Fatalf("unexpected added %v", added)
	}
	if len(removed) != 2 || removed[0].Name != "a" || removed[1].Name != "b" {
		t.Fatalf("unexpected removed %v", removed)
	}
}
