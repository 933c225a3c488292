package event

import (
	"context"
	"testing"
	"time"

	"github.com/eventosumss/api/internal/geo"
)

func int64p(v int64) *int64 { return &v }

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// seedCampus loads three located events around Cochabamba used by the
// distance tests. Returns the repo with locations 1-3 and events 1-3.
func seedCampus(t *testing.T) *InMemoryRepository {
	t.Helper()
	repo := NewInMemoryRepository()

	locations := []*Location{
		{ID: 1, Nombre: "Campus Central", Latitud: -17.3937, Longitud: -66.1465},
		{ID: 2, Nombre: "Facultad de Tecnología", Latitud: -17.3941, Longitud: -66.1479},
		{ID: 3, Nombre: "Valle Hermoso", Latitud: -17.4236, Longitud: -66.1206},
	}
	for _, loc := range locations {
		repo.AddLocation(loc)
	}

	for i, loc := range locations {
		e := &Event{
			Title:       loc.Nombre + " event",
			Category:    "Académico",
			Date:        date(2030, time.March, 10+i),
			Time:        "18:00",
			UbicacionID: int64p(loc.ID),
			UsuarioID:   1,
		}
		if err := repo.Insert(context.Background(), e); err != nil {
			t.Fatalf("Insert() error: %v", err)
		}
	}
	return repo
}

func TestInMemoryRepository_InsertAndGet(t *testing.T) {
	repo := NewInMemoryRepository()
	e := &Event{Title: "Feria de proyectos", Category: "Académico", Date: date(2030, 5, 1), Time: "10:00", UsuarioID: 7}

	if err := repo.Insert(context.Background(), e); err != nil {
		t.Fatalf("Insert() error: %v", err)
	}
	if e.ID == 0 {
		t.Fatal("Insert() did not assign an id")
	}

	got, err := repo.GetByID(context.Background(), e.ID)
	if err != nil {
		t.Fatalf("GetByID() error: %v", err)
	}
	if got.Title != "Feria de proyectos" {
		t.Errorf("Title = %q", got.Title)
	}

	if _, err := repo.GetByID(context.Background(), 999); err != ErrEventNotFound {
		t.Errorf("GetByID(999) error = %v, want ErrEventNotFound", err)
	}
}

func TestNearby_OrderAndLimit(t *testing.T) {
	repo := seedCampus(t)

	// Query from the plaza: point (-17.3895, -66.1568).
	qLat, qLon := -17.3895, -66.1568
	got, err := repo.Nearby(context.Background(), qLat, qLon, NearbyLimit)
	if err != nil {
		t.Fatalf("Nearby() error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if len(got) > NearbyLimit {
		t.Fatalf("len = %d exceeds limit %d", len(got), NearbyLimit)
	}

	for i := 1; i < len(got); i++ {
		if got[i].Distance < got[i-1].Distance {
			t.Errorf("result not ascending by distance at %d: %f < %f", i, got[i].Distance, got[i-1].Distance)
		}
	}

	// Verify each annotated distance against an independently computed
	// haversine value.
	for _, ne := range got {
		want := geo.DistanceKm(qLat, qLon, ne.Latitud, ne.Longitud)
		if diff := ne.Distance - want; diff > 1e-3 || diff < -1e-3 {
			t.Errorf("event %d distance = %f, want %f", ne.ID, ne.Distance, want)
		}
	}

	// Campus Central (location 1) is closer to the plaza than Valle
	// Hermoso (location 3).
	if got[len(got)-1].UbicacionID == nil || *got[len(got)-1].UbicacionID != 3 {
		t.Errorf("expected Valle Hermoso last, got location %v", got[len(got)-1].UbicacionID)
	}
}

func TestNearby_QueryPointOnEventLocation(t *testing.T) {
	repo := seedCampus(t)

	got, err := repo.Nearby(context.Background(), -17.3937, -66.1465, NearbyLimit)
	if err != nil {
		t.Fatalf("Nearby() error: %v", err)
	}
	if len(got) == 0 {
		t.Fatal("expected results")
	}
	if got[0].Distance != 0 {
		t.Errorf("distance at the event's own location = %f, want 0", got[0].Distance)
	}
}

func TestNearby_ExcludesEventsWithoutLocation(t *testing.T) {
	repo := seedCampus(t)
	noLoc := &Event{Title: "Sin ubicación", Date: date(2030, 6, 1), Time: "09:00", UsuarioID: 1}
	if err := repo.Insert(context.Background(), noLoc); err != nil {
		t.Fatalf("Insert() error: %v", err)
	}

	got, err := repo.Nearby(context.Background(), -17.39, -66.15, NearbyLimit)
	if err != nil {
		t.Fatalf("Nearby() error: %v", err)
	}
	for _, ne := range got {
		if ne.ID == noLoc.ID {
			t.Error("event without location included in nearby results")
		}
	}
}

func TestRecommended_TwoTiers(t *testing.T) {
	repo := NewInMemoryRepository()
	repo.SetNow(func() time.Time { return date(2030, 1, 1) })
	repo.SetUserTopics(1, []int64{10, 20})

	// Subscribed upcoming, fallback upcoming, and one past event.
	events := []*Event{
		{Title: "tech talk", TemaID: int64p(10), Date: date(2030, 1, 5), UsuarioID: 2},
		{Title: "music fest", TemaID: int64p(20), Date: date(2030, 1, 3), UsuarioID: 2},
		{Title: "chess open", TemaID: int64p(30), Date: date(2030, 1, 2), UsuarioID: 2},
		{Title: "art expo", TemaID: int64p(40), Date: date(2030, 1, 4), UsuarioID: 2},
		{Title: "old talk", TemaID: int64p(10), Date: date(2029, 12, 1), UsuarioID: 2},
	}
	for _, e := range events {
		if err := repo.Insert(context.Background(), e); err != nil {
			t.Fatalf("Insert() error: %v", err)
		}
	}

	got, err := repo.Recommended(context.Background(), 1, RecommendedLimit)
	if err != nil {
		t.Fatalf("Recommended() error: %v", err)
	}

	// Two subscribed events first (date ascending), then the fallback
	// tier; the past event never appears.
	if len(got) != 4 {
		t.Fatalf("len = %d, want 4", len(got))
	}
	if got[0].Title != "music fest" || got[0].Priority != PrioritySubscribed {
		t.Errorf("got[0] = %q p%d, want music fest p1", got[0].Title, got[0].Priority)
	}
	if got[1].Title != "tech talk" || got[1].Priority != PrioritySubscribed {
		t.Errorf("got[1] = %q p%d, want tech talk p1", got[1].Title, got[1].Priority)
	}
	for _, re := range got[2:] {
		if re.Priority != PriorityFallback {
			t.Errorf("event %q priority = %d, want %d", re.Title, re.Priority, PriorityFallback)
		}
	}
	for _, re := range got {
		if re.Title == "old talk" {
			t.Error("past event included in recommendations")
		}
	}
}

func TestRecommended_NoDuplicates(t *testing.T) {
	repo := NewInMemoryRepository()
	repo.SetNow(func() time.Time { return date(2030, 1, 1) })
	repo.SetUserTopics(1, []int64{10})

	for i := 0; i < 6; i++ {
		e := &Event{Title: "e", TemaID: int64p(10), Date: date(2030, 1, 2+i), UsuarioID: 2}
		if err := repo.Insert(context.Background(), e); err != nil {
			t.Fatalf("Insert() error: %v", err)
		}
	}

	got, err := repo.Recommended(context.Background(), 1, RecommendedLimit)
	if err != nil {
		t.Fatalf("Recommended() error: %v", err)
	}
	seen := make(map[int64]bool)
	for _, re := range got {
		if seen[re.ID] {
			t.Errorf("duplicate event id %d in result", re.ID)
		}
		seen[re.ID] = true
	}
}

func TestRecommended_EmptySubscriptions(t *testing.T) {
	repo := NewInMemoryRepository()
	repo.SetNow(func() time.Time { return date(2030, 1, 1) })

	for i := 0; i < 5; i++ {
		e := &Event{Title: "e", TemaID: int64p(int64(i + 1)), Date: date(2030, 2, 1+i), UsuarioID: 2}
		if err := repo.Insert(context.Background(), e); err != nil {
			t.Fatalf("Insert() error: %v", err)
		}
	}

	// No subscriptions: tier A empty, only the capped fallback tier.
	got, err := repo.Recommended(context.Background(), 99, RecommendedLimit)
	if err != nil {
		t.Fatalf("Recommended() error: %v", err)
	}
	if len(got) != FallbackLimit {
		t.Fatalf("len = %d, want %d", len(got), FallbackLimit)
	}
	for _, re := range got {
		if re.Priority != PriorityFallback {
			t.Errorf("priority = %d, want %d", re.Priority, PriorityFallback)
		}
	}
}

func TestRecommended_FallbackCapAppliedBeforeUnion(t *testing.T) {
	repo := NewInMemoryRepository()
	repo.SetNow(func() time.Time { return date(2030, 1, 1) })
	repo.SetUserTopics(1, []int64{10})

	// 8 subscribed + 5 fallback candidates. The fallback tier must be
	// capped at 3 on its own, so the merged result is 10 rows with at
	// most 3 fallback entries, not 10 subscribed-then-truncated.
	for i := 0; i < 8; i++ {
		if err := repo.Insert(context.Background(), &Event{Title: "sub", TemaID: int64p(10), Date: date(2030, 1, 2+i), UsuarioID: 2}); err != nil {
			t.Fatal(err)
		}
	}
	for i := 0; i < 5; i++ {
		if err := repo.Insert(context.Background(), &Event{Title: "other", TemaID: int64p(99), Date: date(2030, 1, 2+i), UsuarioID: 2}); err != nil {
			t.Fatal(err)
		}
	}

	got, err := repo.Recommended(context.Background(), 1, RecommendedLimit)
	if err != nil {
		t.Fatalf("Recommended() error: %v", err)
	}
	if len(got) != RecommendedLimit {
		t.Fatalf("len = %d, want %d", len(got), RecommendedLimit)
	}

	var fallback int
	for _, re := range got {
		if re.Priority == PriorityFallback {
			fallback++
		}
	}
	if fallback > FallbackLimit {
		t.Errorf("fallback rows = %d, want at most %d", fallback, FallbackLimit)
	}
	// All 8 subscribed events fit inside the cap of 10, so exactly 2
	// fallback rows survive the final truncation.
	if fallback != 2 {
		t.Errorf("fallback rows = %d, want 2", fallback)
	}
}

func TestRecommended_TopiclessEvents(t *testing.T) {
	repo := NewInMemoryRepository()
	repo.SetNow(func() time.Time { return date(2030, 1, 1) })
	repo.SetUserTopics(1, []int64{10})

	events := []*Event{
		{Title: "tech talk", TemaID: int64p(10), Date: date(2030, 1, 3), UsuarioID: 2},
		{Title: "open fair", TemaID: nil, Date: date(2030, 1, 2), UsuarioID: 2},
	}
	for _, e := range events {
		if err := repo.Insert(context.Background(), e); err != nil {
			t.Fatalf("Insert() error: %v", err)
		}
	}

	// A subscriber never sees topicless events: NOT IN against their
	// non-empty topic set is NULL for a NULL tema_id.
	got, err := repo.Recommended(context.Background(), 1, RecommendedLimit)
	if err != nil {
		t.Fatalf("Recommended() error: %v", err)
	}
	if len(got) != 1 || got[0].Title != "tech talk" {
		t.Fatalf("subscriber results = %+v, want only the subscribed event", got)
	}

	// A user with no subscriptions gets everything through the
	// fallback tier, topicless events included.
	got, err = repo.Recommended(context.Background(), 99, RecommendedLimit)
	if err != nil {
		t.Fatalf("Recommended() error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("unsubscribed results = %d events, want 2", len(got))
	}
	for _, re := range got {
		if re.Priority != PriorityFallback {
			t.Errorf("event %q priority = %d, want %d", re.Title, re.Priority, PriorityFallback)
		}
	}
}

func TestRecommended_FallbackPicksSoonest(t *testing.T) {
	repo := NewInMemoryRepository()
	repo.SetNow(func() time.Time { return date(2030, 1, 1) })
	repo.SetUserTopics(1, []int64{10})

	// Fallback candidates inserted out of date order; the tier must keep
	// the three soonest, not the three lowest ids.
	days := []int{9, 2, 7, 4, 6}
	for _, d := range days {
		e := &Event{Title: "other", TemaID: int64p(99), Date: date(2030, 1, d), UsuarioID: 2}
		if err := repo.Insert(context.Background(), e); err != nil {
			t.Fatalf("Insert() error: %v", err)
		}
	}

	got, err := repo.Recommended(context.Background(), 1, RecommendedLimit)
	if err != nil {
		t.Fatalf("Recommended() error: %v", err)
	}
	if len(got) != FallbackLimit {
		t.Fatalf("len = %d, want %d", len(got), FallbackLimit)
	}
	for i, wantDay := range []int{2, 4, 6} {
		if !got[i].Date.Equal(date(2030, 1, wantDay)) {
			t.Errorf("got[%d].Date = %v, want 2030-01-%02d", i, got[i].Date, wantDay)
		}
	}
}

func TestSearch_Filters(t *testing.T) {
	repo := NewInMemoryRepository()
	repo.AddLocation(&Location{ID: 1, Nombre: "Campus Central", Latitud: -17.39, Longitud: -66.14})
	repo.AddLocation(&Location{ID: 2, Nombre: "Facultad de Medicina", Latitud: -17.38, Longitud: -66.15})
	repo.AddTopic(10, "Tecnología")
	repo.AddTopic(20, "Música")

	events := []*Event{
		{Title: "hackathon", Category: "Concurso", TemaID: int64p(10), UbicacionID: int64p(1), Date: date(2030, 3, 1), Time: "08:00", UsuarioID: 1},
		{Title: "concierto", Category: "Cultural", TemaID: int64p(20), UbicacionID: int64p(1), Date: date(2030, 3, 2), Time: "20:00", UsuarioID: 1},
		{Title: "charla salud", Category: "Académico", TemaID: nil, UbicacionID: int64p(2), Date: date(2030, 3, 3), Time: "10:00", UsuarioID: 1},
	}
	for _, e := range events {
		if err := repo.Insert(context.Background(), e); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"no filters", Filter{}, []string{"charla salud", "concierto", "hackathon"}},
		{"all sentinel ignored", Filter{Ubicacion: "all", Categoria: "all", Interes: "all"}, []string{"charla salud", "concierto", "hackathon"}},
		{"by location", Filter{Ubicacion: "Campus Central"}, []string{"concierto", "hackathon"}},
		{"by category", Filter{Categoria: "Cultural"}, []string{"concierto"}},
		{"by topic", Filter{Interes: "Tecnología"}, []string{"hackathon"}},
		{"combined", Filter{Ubicacion: "Campus Central", Interes: "Música"}, []string{"concierto"}},
		{"no match", Filter{Categoria: "Deportivo"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.Search(context.Background(), tt.filter)
			if err != nil {
				t.Fatalf("Search() error: %v", err)
			}
			var titles []string
			for _, fe := range got {
				titles = append(titles, fe.Title)
			}
			if len(titles) != len(tt.want) {
				t.Fatalf("titles = %v, want %v", titles, tt.want)
			}
			for i := range titles {
				if titles[i] != tt.want[i] {
					t.Errorf("titles = %v, want %v", titles, tt.want)
					break
				}
			}
		})
	}
}

func TestFilter_Predicates(t *testing.T) {
	tests := []struct {
		name      string
		filter    Filter
		wantWhere string
		wantArgs  int
	}{
		{"empty", Filter{}, "", 0},
		{"all values", Filter{Ubicacion: "all", Categoria: "all", Interes: "all"}, "", 0},
		{"one filter", Filter{Categoria: "Cultural"}, "WHERE e.category = $1", 1},
		{"two filters", Filter{Ubicacion: "X", Interes: "Y"}, "WHERE u.nombre = $1 AND t.nombre = $2", 2},
		{"three filters", Filter{Ubicacion: "X", Categoria: "C", Interes: "Y"}, "WHERE u.nombre = $1 AND e.category = $2 AND t.nombre = $3", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args := tt.filter.whereClause()
			if where != tt.wantWhere {
				t.Errorf("where = %q, want %q", where, tt.wantWhere)
			}
			if len(args) != tt.wantArgs {
				t.Errorf("args = %d, want %d", len(args), tt.wantArgs)
			}
		})
	}
}

func TestEvent_Upcoming(t *testing.T) {
	now := time.Date(2030, 6, 15, 13, 45, 0, 0, time.UTC)

	same := &Event{Date: date(2030, 6, 15)}
	if !same.Upcoming(now) {
		t.Error("event today should be upcoming")
	}
	past := &Event{Date: date(2030, 6, 14)}
	if past.Upcoming(now) {
		t.Error("event yesterday should not be upcoming")
	}
	future := &Event{Date: date(2030, 6, 16)}
	if !future.Upcoming(now) {
		t.Error("event tomorrow should be upcoming")
	}
}
