package bigquery

import (
	"context"
	"time"

	"github.com/googleapis/gax-go/v2"
	"github.com/sirupsen/logrus"
)

// RetryRead repete fn em erros transitórios, até attempts tentativas no total.
// Só deve envolver leituras: DML e cargas nunca são repetidas.
func RetryRead(ctx context.Context, attempts int, fn func(ctx context.Context) error) error {
	backoff := gax.Backoff{
		Initial:    500 * time.Millisecond,
		Max:        5 * time.Second,
		Multiplier: 2,
	}

	for attempt := 1; ; attempt++ {
		err := fn(ctx)
		if err == nil || attempt >= attempts || !IsTransient(err) {
			return err
		}

		pause := backoff.Pause()
		logrus.Warnf("leitura no BigQuery falhou (tentativa %d de %d), repetindo em %s: %v", attempt, attempts, pause, err)

		if sleepErr := gax.Sleep(ctx, pause); sleepErr != nil {
			return err
		}
	}
}
