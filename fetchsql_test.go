package fetchsql

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"
)

// goldenInputs are the fixture queries rendered into testdata; the sqlite
// smoke test executes the same set.
var goldenInputs = map[string]string{
	"basic": `
		<fetch>
			<entity name="contact">
				<attribute name="fullname"/>
				<filter type="and">
					<condition attribute="status" operator="eq" value="1"/>
				</filter>
				<order attribute="name"/>
			</entity>
		</fetch>`,
	"nested_groups": `
		<fetch top="25">
			<entity name="contact">
				<attribute name="fullname"/>
				<attribute name="emailaddress1" alias="email"/>
				<filter type="and">
					<condition attribute="statecode" operator="eq" value="0"/>
					<filter type="or">
						<condition attribute="city" operator="eq" value="Berlin"/>
						<condition attribute="city" operator="eq" value="Hamburg"/>
					</filter>
				</filter>
				<order attribute="fullname"/>
			</entity>
		</fetch>`,
	"joins": `
		<fetch top="10" distinct="true">
			<entity name="contact">
				<attribute name="fullname" alias="name"/>
				<link-entity name="account" from="accountid" to="parentcustomerid" link-type="outer" alias="acct">
					<attribute name="name"/>
					<filter type="and">
						<condition attribute="statecode" operator="eq" value="0"/>
					</filter>
				</link-entity>
				<order attribute="acct.name" descending="true"/>
			</entity>
		</fetch>`,
	"aggregate": `
		<fetch>
			<entity name="opportunity">
				<attribute name="ownerid" groupby="true" alias="owner"/>
				<attribute name="estimatedvalue" aggregate="sum" alias="total"/>
			</entity>
		</fetch>`,
	"relative_dates": `
		<fetch>
			<entity name="task">
				<filter type="and">
					<condition attribute="createdon" operator="last-x-days" value="7"/>
					<condition attribute="due" operator="today"/>
				</filter>
			</entity>
		</fetch>`,
	"literals": `
		<fetch top="3">
			<entity name="contact">
				<filter type="or">
					<condition attribute="contactid" operator="eq" value="0F8FAD5B-D9CB-469F-A165-70867728950E"/>
					<condition attribute="revenue" operator="ge" value="10.50"/>
					<condition attribute="name" operator="begins-with" value="O'Brien"/>
				</filter>
			</entity>
		</fetch>`,
}

func fixedTranspiler() *Transpiler {
	return New(WithNow(func() time.Time { return fixedNow }))
}

func TestTranspileExample(t *testing.T) {
	sql, err := Transpile(`
		<fetch>
			<entity name="contact">
				<attribute name="fullname"/>
				<filter type="and">
					<condition attribute="status" operator="eq" value="1"/>
				</filter>
				<order attribute="name"/>
			</entity>
		</fetch>`)
	require.NoError(t, err)
	require.Equal(t, "SELECT fullname FROM contact WHERE status = 1 ORDER BY name ASC", sql)
}

func TestParseErrorTypes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		check func(t *testing.T, err error)
	}{
		{
			"Tokenize error",
			`<fetch`,
			func(t *testing.T, err error) {
				var terr *TokenizeError
				require.ErrorAs(t, err, &terr)
				require.Equal(t, CodeUnterminatedTag, terr.Code)
			},
		},
		{
			"Structural error",
			`<fetch><entity name="c">`,
			func(t *testing.T, err error) {
				var serr *StructuralError
				require.ErrorAs(t, err, &serr)
				require.Equal(t, CodeUnterminatedElement, serr.Code)
				require.Equal(t, 7, serr.Pos)
			},
		},
		{
			"Semantic error",
			`<fetch><entity name="c"><widget/></entity></fetch>`,
			func(t *testing.T, err error) {
				var serr *SemanticError
				require.ErrorAs(t, err, &serr)
				require.Equal(t, CodeUnknownElement, serr.Code)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse(tt.input)
			require.Error(t, err)
			require.Nil(t, doc, "no partial document on error")
			tt.check(t, err)
		})
	}
}

func TestRoundTripStability(t *testing.T) {
	tr := fixedTranspiler()
	ctx := context.Background()

	for name, input := range goldenInputs {
		t.Run(name, func(t *testing.T) {
			doc1, err := tr.Parse(ctx, input)
			require.NoError(t, err)
			doc2, err := tr.Parse(ctx, input)
			require.NoError(t, err)

			require.True(t, reflect.DeepEqual(doc1, doc2), "parsing is deterministic")
			require.Equal(t, doc1.Fingerprint(), doc2.Fingerprint())

			sql1, err := tr.Generate(ctx, doc1)
			require.NoError(t, err)
			sql2, err := tr.Generate(ctx, doc1)
			require.NoError(t, err)
			require.Equal(t, sql1, sql2, "generation is deterministic")
		})
	}
}

func TestGolden(t *testing.T) {
	tr := fixedTranspiler()
	g := goldie.New(t)

	for name, input := range goldenInputs {
		t.Run(name, func(t *testing.T) {
			sql, err := tr.Transpile(context.Background(), input)
			require.NoError(t, err)
			g.Assert(t, name, []byte(sql))
		})
	}
}

func TestFingerprint(t *testing.T) {
	base := `<fetch><entity name="contact"><attribute name="fullname"/></entity></fetch>`
	changed := `<fetch><entity name="contact"><attribute name="surname"/></entity></fetch>`

	doc1, err := Parse(base)
	require.NoError(t, err)
	doc2, err := Parse(base)
	require.NoError(t, err)
	doc3, err := Parse(changed)
	require.NoError(t, err)

	require.Equal(t, doc1.Fingerprint(), doc2.Fingerprint())
	require.NotEqual(t, doc1.Fingerprint(), doc3.Fingerprint())
}

func TestConcurrentInvocations(t *testing.T) {
	// The pipeline keeps no shared state; invocations may overlap freely.
	tr := fixedTranspiler()
	done := make(chan error, 16)
	for i := 0; i < 16; i++ {
		go func() {
			_, err := tr.Transpile(context.Background(), goldenInputs["joins"])
			done <- err
		}()
	}
	for i := 0; i < 16; i++ {
		require.NoError(t, <-done)
	}
}
