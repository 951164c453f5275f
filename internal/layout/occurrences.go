package layout

import "github.com/folhapay/remittance/internal/domain"

type Occurrence struct {
	Status  domain.SettlementStatus
	Message string
}

// OccurrenceTable maps a bank occurrence code to its settlement meaning.
type OccurrenceTable map[string]Occurrence

// Lookup returns the entry for code.
func (t OccurrenceTable) Lookup(code string) (Occurrence, bool) {
	o, ok := t[code]
	return o, ok
}

// Resolve maps an occurrence code to a status, consulting the bank's
// overrides before the layout table. A blank code means the bank has not
// answered yet; an unknown code is treated as a rejection.
func (t OccurrenceTable) Resolve(code string, overrides map[string]domain.SettlementStatus) (domain.SettlementStatus, string) {
	o, known := t[code]
	msg := o.Message
	if !known {
		msg = "occurrence " + code
	}
	if s, ok := overrides[code]; ok {
		return s, msg
	}
	if code == "" {
		return domain.StatusPending, "awaiting bank processing"
	}
	if !known {
		return domain.StatusRejected, msg
	}
	return o.Status, msg
}

// febraban holds the payment occurrence codes shared by the FEBRABAN
// layouts. Banks that deviate configure overrides in their BankConfig.
var febraban = OccurrenceTable{
	"00": {domain.StatusSettled, "Crédito ou Débito Efetivado"},
	"01": {domain.StatusRejected, "Insuficiência de Fundos"},
	"02": {domain.StatusRejected, "Crédito ou Débito Cancelado pelo Pagador/Credor"},
	"03": {domain.StatusPending, "Débito Autorizado pela Agência - Efetuado"},
	"AA": {domain.StatusRejected, "Controle Inválido"},
	"AB": {domain.StatusRejected, "Tipo de Operação Inválido"},
	"AC": {domain.StatusRejected, "Tipo de Serviço Inválido"},
	"AD": {domain.StatusRejected, "Forma de Lançamento Inválida"},
	"AE": {domain.StatusRejected, "Tipo/Número de Inscrição Inválido"},
	"AF": {domain.StatusRejected, "Código de Convênio Inválido"},
	"AG": {domain.StatusRejected, "Agência/Conta Corrente/DV Inválido"},
	"AH": {domain.StatusRejected, "Nº Sequencial do Registro no Lote Inválido"},
	"AI": {domain.StatusRejected, "Código de Segmento de Detalhe Inválido"},
	"AJ": {domain.StatusRejected, "Tipo de Movimento Inválido"},
	"AL": {domain.StatusRejected, "Código do Banco Favorecido, Instituição de Pagamento ou Depositário Inválido"},
	"AM": {domain.StatusRejected, "Agência Mantenedora da Conta Corrente do Favorecido Inválida"},
	"AN": {domain.StatusRejected, "Conta Corrente/DV/Conta de Pagamento do Favorecido Inválido"},
	"AP": {domain.StatusRejected, "Data Lançamento Inválido"},
	"AR": {domain.StatusRejected, "Valor do Lançamento Inválido"},
	"AT": {domain.StatusRejected, "Tipo/Número de Inscrição do Favorecido Inválido"},
	"BD": {domain.StatusPending, "Inclusão Efetuada com Sucesso"},
	"BE": {domain.StatusPending, "Alteração Efetuada com Sucesso"},
	"HA": {domain.StatusRejected, "Lote Não Aceito"},
	"TA": {domain.StatusRejected, "Lote Não Aceito - Totais do Lote com Diferença"},
}
