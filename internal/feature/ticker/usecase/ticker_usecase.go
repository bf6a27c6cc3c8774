package usecase

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
	_ "time/tzdata" // 取引所タイムゾーンをホストのtzdataに依存させない

	"golang.org/x/crypto/bcrypt"

	"ticker_backend/internal/feature/ticker/domain/entity"
)

const (
	// ExchangeTimezone は「1日」の境界を決める取引所のタイムゾーンです。
	ExchangeTimezone = "Asia/Shanghai"
	// DefaultAdminPassword は ADMIN_PASSWORD 未設定時の初期パスワードです。
	DefaultAdminPassword = "engine-xie"

	// DefaultCandleLimit はローソク足のデフォルト返却件数です。
	DefaultCandleLimit = 200
	// MaxCandleLimit はローソク足の最大返却件数です。
	MaxCandleLimit = 5000

	// newsImageQuery は自動ニュースの画像検索キーワードです。
	newsImageQuery = "finance"
	// maxVolumePerTick は1ティックで加算される出来高の上限（未満）です。
	maxVolumePerTick = 1000

	defaultImageTimeout   = 10 * time.Second
	defaultPersistTimeout = 5 * time.Second

	timeOfDayLayout = "3:04:05 PM"
	newsTitleLayout = "1/2/2006, 3:04:05 PM"
)

var exchangeLocation = mustLoadLocation(ExchangeTimezone)

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(fmt.Sprintf("load location %s: %v", name, err))
	}
	return loc
}

// ExchangeLocation は取引所タイムゾーンを返します。
func ExchangeLocation() *time.Location {
	return exchangeLocation
}

// Dependencies は TickerUsecase の外部依存をまとめたものです。
// nil のフィールドは無効（または既定の実装）として扱われます。
type Dependencies struct {
	Store        SnapshotStore
	Images       ImageProvider
	Archive      CandleArchive
	Metrics      Metrics
	Clock        Clock
	Random       RandomSource
	ImageTimeout time.Duration
}

// TickerUsecase はティッカー状態を単一のロックの下で所有し、すべての変更操作を直列化します。
type TickerUsecase struct {
	mu       sync.Mutex
	state    *entity.TickerState
	lastTick time.Time

	store        SnapshotStore
	images       ImageProvider
	archive      CandleArchive
	metrics      Metrics
	clock        Clock
	rng          RandomSource
	imageTimeout time.Duration
}

// NewTickerUsecase は指定された状態と依存で TickerUsecase を生成します。
func NewTickerUsecase(state *entity.TickerState, deps Dependencies) *TickerUsecase {
	u := &TickerUsecase{
		state:        state,
		store:        deps.Store,
		images:       deps.Images,
		archive:      deps.Archive,
		metrics:      deps.Metrics,
		clock:        deps.Clock,
		rng:          deps.Random,
		imageTimeout: deps.ImageTimeout,
	}
	if u.metrics == nil {
		u.metrics = noopMetrics{}
	}
	if u.clock == nil {
		u.clock = ClockFunc(time.Now)
	}
	if u.rng == nil {
		u.rng = NewRandomSource()
	}
	if u.imageTimeout <= 0 {
		u.imageTimeout = defaultImageTimeout
	}
	u.metrics.ObservePrice(state.CurrentPrice, state.Volume)
	return u
}

// LoadState はスナップショットから状態を復元します。
// 保存データが無い、または読み込みに失敗した場合はデフォルト状態で起動します。
// adminPassword が空でなければ、復元した状態のパスワードを上書きします。
func LoadState(ctx context.Context, store SnapshotStore, adminPassword string, now time.Time) *entity.TickerState {
	today := now.In(exchangeLocation).Format(entity.DateLayout)

	var loaded *entity.TickerState
	if store != nil {
		st, err := store.Load(ctx)
		if err != nil {
			// 読み込み失敗で起動を止めない
			slog.Error("failed to load ticker snapshot, using defaults", "error", err)
		}
		loaded = st
	}

	if loaded == nil {
		password := adminPassword
		if password == "" {
			slog.Warn("ADMIN_PASSWORD is not set. Using the default admin password.")
			password = DefaultAdminPassword
		}
		st := entity.DefaultTickerState(password, today)
		st.Normalize()
		return st
	}

	slog.Info("ticker snapshot loaded", "symbol", loaded.Symbol, "price", loaded.CurrentPrice, "last_reset_date", loaded.LastResetDate)
	if adminPassword != "" {
		loaded.Password = adminPassword
	}
	loaded.Normalize()
	return loaded
}

// Snapshot は現在の状態のコピーを返します。
func (u *TickerUsecase) Snapshot() *entity.TickerState {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.state.Clone()
}

// LastTick は最後に価格が更新された時刻を返します。未実行の場合はゼロ値です。
func (u *TickerUsecase) LastTick() time.Time {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.lastTick
}

// Symbol は銘柄コードを返します。
func (u *TickerUsecase) Symbol() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.state.Symbol
}

// Tick は価格を±2%の範囲でランダムに変動させ、日次ロールオーバーを確認して保存します。
func (u *TickerUsecase) Tick(ctx context.Context) {
	u.mu.Lock()
	defer u.mu.Unlock()

	now := u.now()
	pct := u.rng.Float64()*(2*entity.MaxWalkPercent) - entity.MaxWalkPercent
	u.state.ApplyRandomWalk(pct, int64(u.rng.IntN(maxVolumePerTick)))
	u.state.PushTransaction(fmt.Sprintf("Auto => %.2f at %s", u.state.CurrentPrice, now.Format(timeOfDayLayout)))
	u.lastTick = now

	u.rolloverLocked(ctx, now)
	u.persistLocked(ctx)

	u.metrics.CountTick()
	u.metrics.ObservePrice(u.state.CurrentPrice, u.state.Volume)
	slog.Debug("price updated", "price", u.state.CurrentPrice, "volume", u.state.Volume)
}

// DailyRollover は取引所タイムゾーンの日付が変わっていれば前日のローソク足を確定します。
// 同じ日付の間は何もしません。ロールオーバーした場合は true を返します。
func (u *TickerUsecase) DailyRollover(ctx context.Context) bool {
	u.mu.Lock()
	defer u.mu.Unlock()

	if !u.rolloverLocked(ctx, u.now()) {
		return false
	}
	u.persistLocked(ctx)
	return true
}

func (u *TickerUsecase) rolloverLocked(ctx context.Context, now time.Time) bool {
	prev := u.state.LastResetDate
	candle := u.state.Rollover(now.Format(entity.DateLayout))
	if u.state.LastResetDate == prev {
		return false
	}

	if candle == nil {
		slog.Info("daily reset without candle", "previous_date", prev, "today", u.state.LastResetDate, "day_open", u.state.DayOpen)
		return true
	}

	slog.Info("daily candle finalized", "date", candle.Date, "open", candle.Open, "close", candle.Close,
		"high", candle.High, "low", candle.Low, "volume", candle.Volume)
	u.metrics.CountCandle()
	if u.archive != nil {
		actx, cancel := context.WithTimeout(ctx, defaultPersistTimeout)
		defer cancel()
		if err := u.archive.UpsertBatch(actx, u.state.Symbol, []entity.DailyCandle{*candle}); err != nil {
			slog.Error("failed to archive daily candle", "date", candle.Date, "error", err)
			u.metrics.CountPersistenceError()
		}
	}
	return true
}

// HourlyNewsCheck は取引所タイムゾーンの「時」が変わっていれば自動ニュースを1件作成します。
// 初回は直前の時をシードし、起動直後にニュースが作成されるようにします。
// 画像検索はロックを保持せずに行います。ニュースを作成した場合は true を返します。
func (u *TickerUsecase) HourlyNewsCheck(ctx context.Context) bool {
	u.mu.Lock()
	hour := u.now().Hour()
	if u.state.LastNewsHour == nil {
		seed := hour - 1
		u.state.LastNewsHour = &seed
	}
	if *u.state.LastNewsHour == hour {
		u.mu.Unlock()
		return false
	}
	slog.Info("news hour changed, creating news", "from", *u.state.LastNewsHour, "to", hour)
	u.mu.Unlock()

	img := u.fetchImage(ctx)

	u.mu.Lock()
	defer u.mu.Unlock()

	// 画像取得中に別のチェックが同じ時のニュースを作成した場合
	if u.state.LastNewsHour != nil && *u.state.LastNewsHour == hour {
		return false
	}

	now := u.now()
	photographer := "Anonymous"
	var imageURL *string
	if img != nil {
		url := img.URL
		imageURL = &url
		if img.AttributionName != "" {
			photographer = img.AttributionName
		}
	}
	item := entity.NewNewsItem(
		"Hourly Update: "+now.Format(newsTitleLayout),
		"Automated news from Engine Xie. Photographer: "+photographer,
		now,
		imageURL,
	)
	u.state.PushNews(item, now)
	u.state.LastNewsHour = &hour
	u.persistLocked(ctx)

	u.metrics.CountNews("auto")
	slog.Info("hourly news posted", "title", item.Title, "has_image", imageURL != nil, "news_count", len(u.state.News))
	return true
}

// fetchImage は画像を検索します。失敗してもニュース作成を止めないため nil を返します。
func (u *TickerUsecase) fetchImage(ctx context.Context) *entity.Image {
	if u.images == nil {
		return nil
	}
	ictx, cancel := context.WithTimeout(ctx, u.imageTimeout)
	defer cancel()

	img, err := u.images.Search(ictx, newsImageQuery)
	if err != nil {
		slog.Warn("image search failed, posting news without image", "error", err)
		u.metrics.CountImageFailure()
		return nil
	}
	return img
}

// OverridePrice は管理者パスワードを検証し、現在値を rawPrice に置き換えます。
// パスワード不一致は ErrUnauthorized、価格が有限の数値でなければ ErrInvalidInput を返します。
func (u *TickerUsecase) OverridePrice(ctx context.Context, password, rawPrice string) (float64, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if !u.authorizedLocked(password) {
		return 0, ErrUnauthorized
	}
	price, err := parseNumber(rawPrice)
	if err != nil {
		return 0, fmt.Errorf("%w: newPrice %q", ErrInvalidInput, rawPrice)
	}

	now := u.now()
	u.state.ApplyOverride(price)
	u.state.PushTransaction(fmt.Sprintf("Override => %.2f at %s", price, now.Format(timeOfDayLayout)))
	u.persistLocked(ctx)

	u.metrics.ObservePrice(u.state.CurrentPrice, u.state.Volume)
	slog.Info("price overridden by admin", "price", price)
	return price, nil
}

// PostNews は管理者パスワードを検証し、手動のニュースを追加します。
// media が指定された場合は画像URLとして保存します。
func (u *TickerUsecase) PostNews(ctx context.Context, password, title, content, media string) (entity.NewsItem, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if !u.authorizedLocked(password) {
		return entity.NewsItem{}, ErrUnauthorized
	}
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if title == "" || content == "" {
		return entity.NewsItem{}, fmt.Errorf("%w: title & content needed", ErrInvalidInput)
	}

	var imageURL *string
	if m := strings.TrimSpace(media); m != "" {
		imageURL = &m
	}
	now := u.now()
	item := entity.NewNewsItem(title, content, now, imageURL)
	u.state.PushNews(item, now)
	u.persistLocked(ctx)

	u.metrics.CountNews("manual")
	slog.Info("manual news posted", "title", title)
	return item, nil
}

// RecordTransaction は売買の記録を取引ログに追加します。価格には影響しません。
func (u *TickerUsecase) RecordTransaction(ctx context.Context, txType, rawQuantity, rawPrice string) (string, error) {
	side, ok := parseSide(txType)
	if !ok {
		return "", fmt.Errorf("%w: type must be Buy or Sell", ErrInvalidInput)
	}
	quantity, err := parseNumber(rawQuantity)
	if err != nil || quantity <= 0 {
		return "", fmt.Errorf("%w: quantity %q", ErrInvalidInput, rawQuantity)
	}
	price, err := parseNumber(rawPrice)
	if err != nil || price <= 0 {
		return "", fmt.Errorf("%w: price %q", ErrInvalidInput, rawPrice)
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	now := u.now()
	line := fmt.Sprintf("%s %s @ %.2f at %s", side, strconv.FormatFloat(quantity, 'f', -1, 64), price, now.Format(timeOfDayLayout))
	u.state.PushTransaction(line)
	u.persistLocked(ctx)

	slog.Info("transaction recorded", "type", side, "quantity", quantity, "price", price)
	return line, nil
}

// Candles は確定したローソク足を新しい順に返します。
// アーカイブが設定されていない場合はメモリ上の価格履歴から返します。
func (u *TickerUsecase) Candles(ctx context.Context, limit int) ([]entity.DailyCandle, error) {
	if limit <= 0 || limit > MaxCandleLimit {
		limit = DefaultCandleLimit
	}

	if u.archive != nil {
		return u.archive.Find(ctx, u.Symbol(), limit)
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	history := u.state.PriceHistory
	out := make([]entity.DailyCandle, 0, min(limit, len(history)))
	for i := len(history) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, history[i])
	}
	return out, nil
}

// SyncArchive はメモリ上の価格履歴をアーカイブへ書き込みます（起動時のバックフィル用）。
func (u *TickerUsecase) SyncArchive(ctx context.Context) error {
	if u.archive == nil {
		return nil
	}
	snap := u.Snapshot()
	if len(snap.PriceHistory) == 0 {
		return nil
	}
	if err := u.archive.UpsertBatch(ctx, snap.Symbol, snap.PriceHistory); err != nil {
		return fmt.Errorf("sync candle archive: %w", err)
	}
	slog.Info("candle archive synced", "count", len(snap.PriceHistory))
	return nil
}

func (u *TickerUsecase) now() time.Time {
	return u.clock.Now().In(exchangeLocation)
}

// persistLocked は状態を保存します。失敗はログに残し、呼び出し元には返しません。
func (u *TickerUsecase) persistLocked(ctx context.Context) {
	if u.store == nil {
		return
	}
	pctx, cancel := context.WithTimeout(ctx, defaultPersistTimeout)
	defer cancel()
	if err := u.store.Save(pctx, u.state); err != nil {
		slog.Error("failed to save ticker snapshot", "error", err)
		u.metrics.CountPersistenceError()
	}
}

// authorizedLocked は supplied が管理者パスワードと一致するかを判定します。
// 保存されたパスワードが bcrypt ハッシュの場合はハッシュとして検証します。
func (u *TickerUsecase) authorizedLocked(supplied string) bool {
	stored := u.state.Password
	if supplied == "" || stored == "" {
		return false
	}
	if isBcryptHash(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(supplied)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(supplied)) == 1
}

func isBcryptHash(s string) bool {
	for _, prefix := range []string{"$2a$", "$2b$", "$2y$"} {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}

// parseNumber は有限の数値として解釈できる文字列を float64 に変換します。
func parseNumber(raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, err
	}
	if !entity.IsValidPrice(v) {
		return 0, fmt.Errorf("not a finite number: %q", raw)
	}
	return v, nil
}

func parseSide(s string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buy":
		return "Buy", true
	case "sell":
		return "Sell", true
	}
	return "", false
}
