package render

import (
	"reflect"
	"testing"

	"faceoverlay/internal/models"
)

func twoFaces() models.ResultSet {
	return models.ResultSet{
		Geometry: models.Geometry{Width: 640, Height: 480},
		Detections: []models.Detection{
			{
				Box:              models.Box{X: 100, Y: 120, Width: 80, Height: 90},
				Age:              29.6,
				Gender:           models.Male,
				GenderConfidence: 0.914,
				Expressions:      models.Expressions{models.Happy: 0.8, models.Neutral: 0.2},
			},
			{
				Box:              models.Box{X: 10, Y: 20, Width: 40, Height: 50},
				Age:              61.2,
				Gender:           models.Female,
				GenderConfidence: 0.55,
				Expressions:      models.Expressions{models.Sad: 0.5, models.Angry: 0.5},
			},
		},
	}
}

func TestLabel(t *testing.T) {
	rs := twoFaces()

	tests := []struct {
		d    models.Detection
		want string
	}{
		{rs.Detections[0], "Age: 30, Gender: male (91%), Emotion: happy"},
		{rs.Detections[1], "Age: 61, Gender: female (55%), Emotion: sad"},
	}

	for _, tt := range tests {
		if got := Label(tt.d); got != tt.want {
			t.Errorf("Label() = %q, expected %q", got, tt.want)
		}
	}
}

func TestRender_DrawsInResultOrder(t *testing.T) {
	rec := NewRecorder()
	rec.Resize(models.Geometry{Width: 640, Height: 480})

	NewRenderer().Render(rec, twoFaces())

	got := rec.Snapshot().Primitives
	if len(got) != 4 {
		t.Fatalf("Expected 4 primitives, got %d", len(got))
	}

	if got[0].Kind != KindRect || got[0].Box.X != 100 {
		t.Errorf("First primitive should be the first face box, got %+v", got[0])
	}
	if got[1].Kind != KindText || got[1].X != 100 || got[1].Y != 110 {
		t.Errorf("Label should sit above the box top-left, got %+v", got[1])
	}
	if got[2].Box.X != 10 || got[3].Y != 10 {
		t.Errorf("Second face drawn out of order: %+v %+v", got[2], got[3])
	}
	if got[0].Color != "#00ff00" || got[0].Weight != StrokeWeight {
		t.Errorf("Unexpected stroke style %+v", got[0])
	}
	if got[1].Size != FontSize {
		t.Errorf("Expected font size %d, got %d", FontSize, got[1].Size)
	}
}

func TestRender_Idempotent(t *testing.T) {
	rec := NewRecorder()
	rec.Resize(models.Geometry{Width: 640, Height: 480})
	r := NewRenderer()

	r.Render(rec, twoFaces())
	first := rec.Snapshot()
	r.Render(rec, twoFaces())
	second := rec.Snapshot()

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Repeated render should produce identical output:\n%+v\n%+v", first, second)
	}
}

func TestRender_EmptyResultClearsSurface(t *testing.T) {
	rec := NewRecorder()
	rec.Resize(models.Geometry{Width: 640, Height: 480})
	r := NewRenderer()

	r.Render(rec, twoFaces())
	r.Render(rec, models.ResultSet{Geometry: models.Geometry{Width: 640, Height: 480}})

	snap := rec.Snapshot()
	if len(snap.Primitives) != 0 {
		t.Errorf("Expected cleared surface, got %d primitives", len(snap.Primitives))
	}
	if snap.Geometry != (models.Geometry{Width: 640, Height: 480}) {
		t.Errorf("Surface geometry should be kept, got %+v", snap.Geometry)
	}
}

func TestRecorder_ResizeIdempotent(t *testing.T) {
	rec := NewRecorder()
	g := models.Geometry{Width: 320, Height: 240}

	rec.Resize(g)
	rec.StrokeRect(models.Box{Width: 1, Height: 1}, Lime, 1)
	rec.Resize(g)

	if len(rec.Pending()) != 1 {
		t.Error("Resizing to the same size must not drop pending primitives")
	}

	rec.Resize(models.Geometry{Width: 640, Height: 480})
	if len(rec.Pending()) != 0 {
		t.Error("Resizing to a new size resets the surface")
	}
}

func TestRecorder_OnPresent(t *testing.T) {
	rec := NewRecorder()
	var lists []DisplayList
	rec.OnPresent(func(l DisplayList) { lists = append(lists, l) })

	NewRenderer().Render(rec, twoFaces())

	if len(lists) != 1 || len(lists[0].Primitives) != 4 {
		t.Errorf("Expected one committed list with 4 primitives, got %+v", lists)
	}
}

func TestMulti_FansOut(t *testing.T) {
	a, b := NewRecorder(), NewRecorder()
	m := Multi{a, b}

	m.Resize(models.Geometry{Width: 10, Height: 10})
	NewRenderer().Render(m, twoFaces())

	for i, rec := range []*Recorder{a, b} {
		if len(rec.Snapshot().Primitives) != 4 {
			t.Errorf("Surface %d: expected 4 committed primitives, got %d", i, len(rec.Snapshot().Primitives))
		}
		if rec.Geometry() != (models.Geometry{Width: 10, Height: 10}) {
			t.Errorf("Surface %d not resized", i)
		}
	}
}
