package app

import (
	"github.com/jonboulle/clockwork"
	"github.com/orgball2608/crosspost/internal/dispatcher"
	"github.com/orgball2608/crosspost/internal/httpapi"
	"github.com/orgball2608/crosspost/internal/notifier/telegramimpl"
	"github.com/orgball2608/crosspost/internal/provider"
	"github.com/orgball2608/crosspost/internal/provider/sandbox"
	"github.com/orgball2608/crosspost/internal/publishing"
	"github.com/orgball2608/crosspost/internal/query"
	"github.com/orgball2608/crosspost/internal/ratelimit"
	"github.com/orgball2608/crosspost/internal/repositories/account"
	"github.com/orgball2608/crosspost/internal/repositories/post"
	"github.com/orgball2608/crosspost/internal/scheduler"
	"github.com/orgball2608/crosspost/internal/storage"
	"github.com/orgball2608/crosspost/pkg/config"
	"github.com/orgball2608/crosspost/pkg/logger"
	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(
		config.New,
		logger.FxOption,
		clockwork.NewRealClock,
		storage.New,
	),
	post.Module,
	account.Module,
	provider.Module,
	sandbox.Module,
	telegramimpl.Module,
	dispatcher.Module,
	scheduler.Module,
	publishing.Module,
	query.Module,
	ratelimit.Module,
	httpapi.Module,
)
