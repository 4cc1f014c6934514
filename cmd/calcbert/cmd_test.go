package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/calcbert/internal/config"
	"github.com/Veraticus/calcbert/internal/tfidf"
)

const testCorpus = `transaction_text,category
STARBUCKS MG ROAD,Food & Dining
CAFE COFFEE DAY KORAMANGALA,Food & Dining
SWIGGY ORDER 1234,Food & Dining
UBER TRIP BLR,Transport
OLA CABS RIDE,Transport
INDIAN OIL PETROL PUMP,Transport
AMAZON PAY ORDER,Shopping
FLIPKART INTERNET,Shopping
MYNTRA FASHION,Shopping
`

// setupConfig points the global viper instance at a throwaway workspace.
func setupConfig(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	corpus := filepath.Join(dir, "train.csv")
	require.NoError(t, os.WriteFile(corpus, []byte(testCorpus), 0o600))

	viper.Reset()
	config.SetDefaults(viper.GetViper())
	viper.Set("database.path", filepath.Join(dir, "feedback.db"))
	viper.Set("models.tfidf_dir", filepath.Join(dir, "tfidf"))
	viper.Set("data.base_corpus", corpus)
	t.Cleanup(viper.Reset)

	return dir
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestFeedbackCommands(t *testing.T) {
	setupConfig(t)

	out, err := execute(t, feedbackCmd(), "add", "ZOMATO ORDER 8812", "Food & Dining", "--user", "u1")
	require.NoError(t, err)
	assert.Contains(t, out, "Feedback saved successfully with ID 1")

	out, err = execute(t, feedbackCmd(), "count")
	require.NoError(t, err)
	assert.Contains(t, out, "Total feedback entries: 1")

	out, err = execute(t, feedbackCmd(), "list")
	require.NoError(t, err)
	assert.Contains(t, out, "ZOMATO ORDER 8812")
	assert.Contains(t, out, "u1")

	_, err = execute(t, feedbackCmd(), "clear")
	require.Error(t, err)

	_, err = execute(t, feedbackCmd(), "clear", "--yes")
	require.NoError(t, err)

	out, err = execute(t, feedbackCmd(), "count")
	require.NoError(t, err)
	assert.Contains(t, out, "Total feedback entries: 0")
}

func TestFeedbackAddRequiresArgs(t *testing.T) {
	setupConfig(t)

	_, err := execute(t, feedbackCmd(), "add", "only text")
	require.Error(t, err)
}

func TestRulesCommands(t *testing.T) {
	setupConfig(t)

	out, err := execute(t, rulesCmd(), "list")
	require.NoError(t, err)
	assert.Contains(t, out, "starbucks")

	out, err = execute(t, rulesCmd(), "add", "blinkit", "blinkit|zepto", "Groceries", "--regex", "--priority", "90")
	require.NoError(t, err)
	assert.Contains(t, out, "Created rule")

	out, err = execute(t, rulesCmd(), "list")
	require.NoError(t, err)
	assert.Contains(t, out, "/blinkit|zepto/")

	_, err = execute(t, rulesCmd(), "add", "broken", "([", "Groceries", "--regex")
	require.Error(t, err)

	_, err = execute(t, rulesCmd(), "delete", "abc")
	require.Error(t, err)
}

func TestRetrainThenClassify(t *testing.T) {
	dir := setupConfig(t)

	_, err := execute(t, feedbackCmd(), "add", "BLINKIT GROCERY DELIVERY", "Groceries")
	require.NoError(t, err)

	out, err := execute(t, retrainCmd())
	require.NoError(t, err)
	assert.Contains(t, out, "Retrain complete")
	assert.Contains(t, out, "9 base samples + 1 feedback samples = 10 total")
	assert.FileExists(t, filepath.Join(dir, "tfidf", tfidf.VectorizerFile))

	out, err = execute(t, classifyCmd(), "STARBUCKS INDIRANAGAR", "--explain")
	require.NoError(t, err)
	assert.Contains(t, out, "Coffee & Beverages")
	assert.Contains(t, out, "[rule]")
}

const memoOnlyOFX = `OFXHEADER:100
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
<DTSERVER>20240315120000[0:GMT]
<LANGUAGE>ENG
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
<CURDEF>INR
<BANKACCTFROM>
<BANKID>123456789
<ACCTID>1234567890
<ACCTTYPE>CHECKING
</BANKACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101120000[0:GMT]
<DTEND>20240131120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240115120000[0:GMT]
<TRNAMT>-325.50
<FITID>2024011501
<NAME>POS STARBUCKS #1023 MUMBAI
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240118120000[0:GMT]
<TRNAMT>-899.00
<FITID>2024011801
<MEMO>NETFLIX SUBSCRIPTION
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240119120000[0:GMT]
<TRNAMT>-10.00
<FITID>2024011901
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>1000.00
<DTASOF>20240131120000[0:GMT]
</LEDGERBAL>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>`

func TestClassifyOFXWithMemoOnlyLines(t *testing.T) {
	dir := setupConfig(t)
	path := filepath.Join(dir, "statement.ofx")
	require.NoError(t, os.WriteFile(path, []byte(memoOnlyOFX), 0o600))

	out, err := execute(t, classifyCmd(), "--ofx", path)
	require.NoError(t, err)
	assert.Contains(t, out, "2 transactions")
	assert.Contains(t, out, "NETFLIX SUBSCRIPTION")
}

func TestRetrainRejectsUnsupportedModel(t *testing.T) {
	setupConfig(t)

	_, err := execute(t, retrainCmd(), "--model", "distilbert")
	require.Error(t, err)
}

func TestClassifyRequiresInput(t *testing.T) {
	setupConfig(t)

	_, err := execute(t, classifyCmd())
	require.Error(t, err)
}
