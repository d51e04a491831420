package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20251031120000
<LANGUAGE>POR
</SONRS>
</SIGNONMSGSRSV1>
<BANKMSGSRSV1>
<STMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<STMTRS>
<CURDEF>BRL
<BANKACCTFROM>
<BANKID>0260
<ACCTID>12345-6
<ACCTTYPE>CHECKING
</BANKACCTFROM>
<BANKTRANLIST>
<DTSTART>20251001000000
<DTEND>20251031000000
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20251005120000
<TRNAMT>-350.00
<FITID>fit-1
<NAME>Mercado Pao
</STMTTRN>
<STMTTRN>
<TRNTYPE>CREDIT
<DTPOSTED>20251006120000
<TRNAMT>800.00
<FITID>fit-2
<NAME>Salario
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>450.00
<DTASOF>20251031000000
</LEDGERBAL>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>
`

func TestOFXProvider_ExtractRows(t *testing.T) {
	p := &OFXProvider{}

	res, err := p.ExtractRows(context.Background(), []byte(sampleOFX))
	require.NoError(t, err)

	assert.Equal(t, []string{"date", "title", "amount"}, res.Header)
	require.Len(t, res.Rows, 2)

	assert.Equal(t, "2025-10-05", res.Rows[0].Values["date"])
	assert.Equal(t, "Mercado Pao", res.Rows[0].Values["title"])
	assert.Equal(t, "-350.00", res.Rows[0].Values["amount"])

	assert.Equal(t, "800.00", res.Rows[1].Values["amount"])
	assert.Equal(t, "Salario", res.Rows[1].Values["title"])
}

func TestOFXProvider_MixedCaseSeverity(t *testing.T) {
	// Some banks emit <SEVERITY>Info</SEVERITY>, which strict parsers reject.
	fixed := preprocessOFX("\n\n" + sampleOFX)
	assert.NotContains(t, fixed, "<SEVERITY>Info")

	p := &OFXProvider{}
	_, err := p.ExtractRows(context.Background(), []byte(sampleOFX))
	require.NoError(t, err)
}

func TestOFXProvider_Unreadable(t *testing.T) {
	p := &OFXProvider{}

	_, err := p.ExtractRows(context.Background(), []byte("this is not ofx"))

	var ee *ExtractionError
	require.Error(t, err)
	assert.True(t, errors.As(err, &ee))
}
