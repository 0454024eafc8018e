package exposure

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sundose/sundose/internal/adaptation"
	"github.com/sundose/sundose/internal/dosimetry"
	"github.com/sundose/sundose/internal/uvindex"
)

// ConditionsSource supplies current sun conditions for a location.
type ConditionsSource interface {
	Current(ctx context.Context, lat, lon, altitudeMeters float64) (*uvindex.Conditions, error)
}

// HealthExporter receives completed sessions for external health stores.
// Export is best-effort: a failed export never fails the session end.
type HealthExporter interface {
	ExportSession(ctx context.Context, userID string, amountIU float64, completedAt time.Time) error
}

// ServiceConfig contains dependencies for the exposure service.
type ServiceConfig struct {
	Repo       Repository
	Conditions ConditionsSource
	Exporter   HealthExporter
	Logger     zerolog.Logger

	// ExportTimeout bounds the background health export per session.
	ExportTimeout time.Duration

	// Now is overridable for tests.
	Now func() time.Time
}

// Service owns one accumulator per actively tracking user and drives them
// from the periodic tick. All state transitions go through the service
// mutex, so accumulators themselves stay lock-free.
type Service struct {
	repo          Repository
	conditions    ConditionsSource
	exporter      HealthExporter
	logger        zerolog.Logger
	exportTimeout time.Duration
	now           func() time.Time

	mu       sync.Mutex
	active   map[string]*userTrack
	trackers map[string]*adaptation.Tracker
}

// userTrack is the per-user tracking state while a session is live.
type userTrack struct {
	acc             *Accumulator
	lat, lon        float64
	altitudeMeters  float64
	manualUV        *float64
	lastQuality     float64
	lastAltitudeMul float64
	offline         bool
}

// NewService creates an exposure service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Repo == nil {
		return nil, fmt.Errorf("exposure: repository is required")
	}
	if cfg.Conditions == nil {
		return nil, fmt.Errorf("exposure: conditions source is required")
	}
	if cfg.ExportTimeout <= 0 {
		cfg.ExportTimeout = 10 * time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Service{
		repo:          cfg.Repo,
		conditions:    cfg.Conditions,
		exporter:      cfg.Exporter,
		logger:        cfg.Logger.With().Str("component", "exposure").Logger(),
		exportTimeout: cfg.ExportTimeout,
		now:           cfg.Now,
		active:        make(map[string]*userTrack),
		trackers:      make(map[string]*adaptation.Tracker),
	}, nil
}

// tracker returns the user's adaptation tracker, creating and seeding it
// from persisted history on first use. Seeding hits the repository, so it
// runs outside the service mutex; the tracker is internally synchronized.
// Seeding is best-effort; an empty tracker reports a neutral factor.
func (s *Service) tracker(ctx context.Context, userID string) *adaptation.Tracker {
	s.mu.Lock()
	tr, ok := s.trackers[userID]
	s.mu.Unlock()
	if ok {
		return tr
	}

	tr = adaptation.NewTracker(s.logger)
	tr.Seed(ctx, &repoHistory{repo: s.repo, userID: userID, now: s.now})

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.trackers[userID]; ok {
		return existing
	}
	s.trackers[userID] = tr
	return tr
}

// repoHistory adapts the session repository to the adaptation history
// interface for one user.
type repoHistory struct {
	repo   Repository
	userID string
	now    func() time.Time
}

func (h *repoHistory) DailyTotals(ctx context.Context, days int) (map[time.Time]float64, error) {
	since := h.now().UTC().Truncate(24*time.Hour).AddDate(0, 0, -(days - 1))
	return h.repo.DailyTotals(ctx, h.userID, since)
}

// Begin starts tracking for a user. The profile is snapshotted into the
// session; later profile edits do not affect a running session.
func (s *Service) Begin(ctx context.Context, userID string, lat, lon float64, profile dosimetry.Profile) (*Session, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}

	cond, err := s.conditions.Current(ctx, lat, lon, profile.AltitudeMeters)
	if err != nil {
		return nil, err
	}

	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.active[userID]; ok {
		return nil, ErrSessionActive
	}

	track := &userTrack{
		acc:             NewAccumulator(),
		lat:             lat,
		lon:             lon,
		altitudeMeters:  profile.AltitudeMeters,
		lastQuality:     cond.TimeOfDayQuality,
		lastAltitudeMul: dosimetry.AltitudeMultiplier(profile.AltitudeMeters),
		offline:         cond.OfflineMode,
	}
	if cond.AltitudeMultiplier > 0 {
		track.lastAltitudeMul = cond.AltitudeMultiplier
	}

	sessionID := "ses_" + uuid.New().String()[:22]
	if err := track.acc.Begin(now, cond.CloudAdjustedUV, profile, userID, sessionID, lat, lon); err != nil {
		return nil, err
	}
	s.active[userID] = track

	s.logger.Info().
		Str("user_id", userID).
		Str("session_id", sessionID).
		Float64("uv_index", cond.CloudAdjustedUV).
		Msg("exposure session started")

	return track.acc.Snapshot(), nil
}

// condSnapshot copies the fields a conditions lookup needs so the lookup
// can run without holding the service mutex. The track pointer is kept for
// identity only: a session ended and restarted during the lookup must not
// receive the stale result.
type condSnapshot struct {
	userID          string
	track           *userTrack
	lat, lon        float64
	altitudeMeters  float64
	manualUV        *float64
	lastQuality     float64
	lastAltitudeMul float64
}

// snapshotLocked copies a track for an off-lock lookup. Caller holds s.mu.
func snapshotLocked(userID string, track *userTrack) condSnapshot {
	return condSnapshot{
		userID:          userID,
		track:           track,
		lat:             track.lat,
		lon:             track.lon,
		altitudeMeters:  track.altitudeMeters,
		manualUV:        track.manualUV,
		lastQuality:     track.lastQuality,
		lastAltitudeMul: track.lastAltitudeMul,
	}
}

// Tick integrates one interval for every active session. Called from the
// periodic worker. The active set is snapshotted under the lock, conditions
// resolve off-lock (a cold cache fetch can take seconds, and it must never
// stall Begin, End or Current for other users), and each result is applied
// back under the lock.
func (s *Service) Tick(ctx context.Context) {
	now := s.now()

	s.mu.Lock()
	snaps := make([]condSnapshot, 0, len(s.active))
	for userID, track := range s.active {
		snaps = append(snaps, snapshotLocked(userID, track))
	}
	s.mu.Unlock()

	for _, snap := range snaps {
		in, cond, err := s.resolveRateInput(ctx, snap)
		if err != nil {
			s.logger.Warn().Err(err).Str("user_id", snap.userID).Msg("tick conditions lookup failed, integrating at last known values")
		}
		s.applyTick(now, snap, in, cond)
	}
}

// applyTick integrates one resolved interval for one user. Skipped when the
// session ended while the lookup was in flight.
func (s *Service) applyTick(now time.Time, snap condSnapshot, in dosimetry.RateInput, cond *uvindex.Conditions) {
	s.mu.Lock()
	defer s.mu.Unlock()

	track, ok := s.active[snap.userID]
	if !ok || track != snap.track {
		return
	}
	track.applyConditions(cond)
	if err := track.acc.Tick(now, in); err != nil {
		s.logger.Error().Err(err).Str("user_id", snap.userID).Msg("tick integration failed")
	}
}

// applyConditions folds a fresh lookup into the last-known values. Caller
// holds the service mutex.
func (t *userTrack) applyConditions(cond *uvindex.Conditions) {
	if cond == nil {
		return
	}
	t.lastQuality = cond.TimeOfDayQuality
	if cond.AltitudeMultiplier > 0 {
		t.lastAltitudeMul = cond.AltitudeMultiplier
	}
	t.offline = cond.OfflineMode
}

// resolveRateInput resolves the rate model input for one snapshotted user
// without touching service state. A manual UV override bypasses the cache
// entirely; otherwise a cache miss falls back to the last known quality and
// altitude at UV zero, which keeps the integral conservative during outages.
// The returned conditions are non-nil only when fresh data was used.
func (s *Service) resolveRateInput(ctx context.Context, snap condSnapshot) (dosimetry.RateInput, *uvindex.Conditions, error) {
	factor := s.tracker(ctx, snap.userID).CurrentFactor(s.now())

	if snap.manualUV != nil {
		return dosimetry.RateInput{
			UVIndex:            *snap.manualUV,
			TimeOfDayQuality:   1.0,
			AltitudeMultiplier: snap.lastAltitudeMul,
			AdaptationFactor:   factor,
		}, nil, nil
	}

	cond, err := s.conditions.Current(ctx, snap.lat, snap.lon, snap.altitudeMeters)
	if err != nil || cond.HasNoData {
		if err == nil {
			err = uvindex.ErrNoUsableData
		}
		return dosimetry.RateInput{
			UVIndex:            0,
			TimeOfDayQuality:   snap.lastQuality,
			AltitudeMultiplier: snap.lastAltitudeMul,
			AdaptationFactor:   factor,
		}, nil, err
	}

	altMul := snap.lastAltitudeMul
	if cond.AltitudeMultiplier > 0 {
		altMul = cond.AltitudeMultiplier
	}

	return dosimetry.RateInput{
		UVIndex:            cond.CloudAdjustedUV,
		TimeOfDayQuality:   cond.TimeOfDayQuality,
		AltitudeMultiplier: altMul,
		AdaptationFactor:   factor,
	}, cond, nil
}

// End finalizes the user's active session, persists it, feeds the adaptation
// window and hands the dose to the health exporter. Persistence and export
// failures are logged; the caller still receives the completed session.
func (s *Service) End(ctx context.Context, userID string) (*Session, error) {
	now := s.now()

	s.mu.Lock()
	track, ok := s.active[userID]
	if !ok {
		s.mu.Unlock()
		return nil, ErrNoActiveSession
	}
	snap := snapshotLocked(userID, track)
	s.mu.Unlock()

	// Resolve the final partial interval off-lock, like a regular tick.
	in, cond, err := s.resolveRateInput(ctx, snap)
	if err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("final tick conditions lookup failed")
	}
	tracker := s.tracker(ctx, userID)

	s.mu.Lock()
	if current, ok := s.active[userID]; !ok || current != track {
		s.mu.Unlock()
		return nil, ErrNoActiveSession
	}
	track.applyConditions(cond)
	if err := track.acc.Tick(now, in); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("final tick integration failed")
	}

	session, err := track.acc.End(now)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	delete(s.active, userID)
	s.mu.Unlock()

	tracker.RecordDay(*session.EndTime, session.AccumulatedIU)

	session.CreatedAt = now
	if err := s.repo.Create(ctx, session); err != nil {
		s.logger.Error().Err(err).Str("session_id", session.ID).Msg("failed to persist completed session")
	}

	if s.exporter != nil {
		go s.export(session)
	}

	s.logger.Info().
		Str("user_id", userID).
		Str("session_id", session.ID).
		Float64("accumulated_iu", session.AccumulatedIU).
		Dur("duration", session.Duration(now)).
		Msg("exposure session ended")

	return session, nil
}

func (s *Service) export(session *Session) {
	ctx, cancel := context.WithTimeout(context.Background(), s.exportTimeout)
	defer cancel()

	if err := s.exporter.ExportSession(ctx, session.UserID, session.AccumulatedIU, *session.EndTime); err != nil {
		s.logger.Warn().Err(err).Str("session_id", session.ID).Msg("health export failed")
	}
}

// SetManualUV overrides the cached UV for the user's active session, for
// indoor UV lamps or places the forecast cannot cover. Passing nil returns
// the session to cache-driven conditions.
func (s *Service) SetManualUV(userID string, uvIndex *float64) error {
	if uvIndex != nil && (*uvIndex < 0 || *uvIndex > 20) {
		return fmt.Errorf("%w: manual uv index out of range", dosimetry.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	track, ok := s.active[userID]
	if !ok {
		return ErrNoActiveSession
	}
	track.manualUV = uvIndex
	return nil
}

// Current returns a copy of the user's active session, or ErrNoActiveSession.
func (s *Service) Current(userID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	track, ok := s.active[userID]
	if !ok {
		return nil, ErrNoActiveSession
	}
	return track.acc.Snapshot(), nil
}

// List returns the user's completed sessions, newest first.
func (s *Service) List(ctx context.Context, userID string, opts ListOptions) (*ListResult, error) {
	return s.repo.List(ctx, userID, opts)
}

// DailyTotals returns accumulated IU per calendar day over the trailing
// window of the given length.
func (s *Service) DailyTotals(ctx context.Context, userID string, days int) (map[time.Time]float64, error) {
	if days <= 0 {
		days = adaptation.WindowDays
	}
	since := s.now().UTC().Truncate(24*time.Hour).AddDate(0, 0, -(days - 1))
	return s.repo.DailyTotals(ctx, userID, since)
}

// AdaptationFactor exposes the user's current adaptation factor for display.
func (s *Service) AdaptationFactor(ctx context.Context, userID string) float64 {
	return s.tracker(ctx, userID).CurrentFactor(s.now())
}

// ActiveCount reports the number of live sessions, for ops status.
func (s *Service) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}
