package historical

import (
	"fmt"

	"github.com/vfg2006/historico-admin-api/internal/config"
	"github.com/vfg2006/historico-admin-api/internal/domain"
	"github.com/vfg2006/historico-admin-api/internal/months"
)

var formats = map[domain.DatasetName]*months.Format{
	domain.DatasetInstar:  months.Instar,
	domain.DatasetAdMedia: months.AdMedia,
}

// BuildDatasets monta os descritores dos datasets a partir da configuração
func BuildDatasets(cfg *config.Config) (map[domain.DatasetName]domain.Dataset, error) {
	sources := map[domain.DatasetName]config.Dataset{
		domain.DatasetInstar:  cfg.Instar,
		domain.DatasetAdMedia: cfg.AdMedia,
	}

	datasets := make(map[domain.DatasetName]domain.Dataset, len(sources))
	for _, name := range domain.DatasetNames {
		source := sources[name]

		table, err := domain.ParseTableRef(fmt.Sprintf("%s.%s.%s", source.ProjectID, source.Dataset, source.Table))
		if err != nil {
			return nil, fmt.Errorf("dataset %s: %w", name, err)
		}
		if !domain.ValidColumnName(source.MonthColumn) {
			return nil, fmt.Errorf("dataset %s: coluna de mês inválida %q", name, source.MonthColumn)
		}

		datasets[name] = domain.Dataset{
			Name:        name,
			Table:       table,
			MonthColumn: source.MonthColumn,
			Format:      formats[name],
		}
	}

	return datasets, nil
}
