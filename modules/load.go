package modules

import (
	"github.com/mwaxman519/rishi-next-sub005/modules/scheduling"
	"github.com/mwaxman519/rishi-next-sub005/pkg/application"
)

var BuiltInModules = []application.Module{
	scheduling.NewModule(),
}

func Load(app application.Application, externalModules ...application.Module) error {
	for _, module := range externalModules {
		if err := module.Register(app); err != nil {
			return err
		}
	}
	return nil
}
