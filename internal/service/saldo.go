package service

import (
	"cajaledger/internal/dto"
	"cajaledger/internal/model"

	"github.com/shopspring/decimal"
)

// CalcularSaldoEsperado is the balance calculator: a pure function of the
// session's opening cash balance, the signed per-method sums of its ACTIVE
// movements, and the per-method sales contributions. The opening balance is
// assigned entirely to the cash bucket; every other method starts at zero.
//
// The result is deterministic and re-derivable at any time from persisted
// facts — it is never stored except as the snapshot inside an Arqueo.
func CalcularSaldoEsperado(montoInicial decimal.Decimal, movimientos, ventas map[string]decimal.Decimal) dto.MontosPorMetodo {
	bucket := func(metodo string) decimal.Decimal {
		// Missing keys read as zero: decimal.Decimal's zero value is 0.
		return movimientos[metodo].Add(ventas[metodo])
	}

	m := dto.MontosPorMetodo{
		Efectivo:      montoInicial.Add(bucket(model.MetodoEfectivo)),
		Yape:          bucket(model.MetodoYape),
		Transferencia: bucket(model.MetodoTransferencia),
		Tarjeta:       bucket(model.MetodoTarjeta),
		Otro:          bucket(model.MetodoOtro),
	}
	return m.Sumar()
}

// SumarMovimientos folds a slice of movements into signed per-method sums,
// skipping voided rows. Equivalent to the SQL aggregate the repository runs;
// used where the movements are already in hand.
func SumarMovimientos(movs []model.MovimientoCaja) map[string]decimal.Decimal {
	sums := make(map[string]decimal.Decimal)
	for _, m := range movs {
		if m.Estado != model.MovimientoActivo {
			continue
		}
		sums[m.MetodoPago] = sums[m.MetodoPago].Add(m.MontoFirmado())
	}
	return sums
}
