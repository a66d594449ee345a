package scheduling

import (
	"embed"

	"github.com/mwaxman519/rishi-next-sub005/modules/scheduling/domain/conflict"
	"github.com/mwaxman519/rishi-next-sub005/modules/scheduling/infrastructure/persistence"
	"github.com/mwaxman519/rishi-next-sub005/modules/scheduling/presentation/controllers"
	"github.com/mwaxman519/rishi-next-sub005/modules/scheduling/services"
	"github.com/mwaxman519/rishi-next-sub005/pkg/application"
)

//go:embed infrastructure/persistence/schema/scheduling-schema.sql
var migrationFiles embed.FS

func NewModule() application.Module {
	return &Module{}
}

type Module struct{}

func (m *Module) Register(app application.Application) error {
	app.Migrations().RegisterSchema(&migrationFiles)

	detector := conflict.NewDetector(
		persistence.NewShiftIntervalSource(),
		persistence.NewEventIntervalSource(),
		persistence.NewUnavailabilityIntervalSource(),
	)

	app.RegisterServices(
		services.NewShiftService(
			persistence.NewShiftRepository(),
			detector,
			app.EventPublisher(),
			app.Logger(),
		),
	)

	app.RegisterControllers(
		controllers.NewShiftAPIController(app),
	)

	return nil
}

func (m *Module) Name() string {
	return "scheduling"
}
