// Copyright 2026 The davtest Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package loader

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davtools/davtest"
)

const serverInfoXML = `<serverinfo>
  <host>cal.example.com</host>
  <port>8443</port>
  <ssl/>
  <host2>cal2.example.com</host2>
  <authtype>digest</authtype>
  <user>user01</user>
  <pswd>pswd01</pswd>
  <waitcount>12</waitcount>
  <waitdelay>0.25</waitdelay>
  <features>
    <feature>caldav</feature>
    <feature>sync-report</feature>
  </features>
  <substitutions>
    <substitution>
      <key>$principal1:</key>
      <value>/principals/users/user01/</value>
    </substitution>
    <substitution>
      <key>$calendarpath1:</key>
      <value>/calendars/users/user01/calendar/</value>
    </substitution>
  </substitutions>
</serverinfo>`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadServerInfo(t *testing.T) {
	sf, err := LoadServerInfo(writeFile(t, "serverinfo.xml", serverInfoXML), nil)
	require.NoError(t, err)

	info := sf.Info
	assert.Equal(t, "cal.example.com", info.Target.Host)
	assert.Equal(t, 8443, info.Target.Port)
	assert.True(t, info.Target.TLS)
	assert.Equal(t, "cal2.example.com", info.Target2.Host)
	assert.Equal(t, 8443, info.Target2.Port, "port2 defaults to port")
	assert.True(t, info.Target2.TLS, "scheme shared with primary")
	assert.Equal(t, "digest", info.AuthType)
	assert.Equal(t, "user01", info.User)
	assert.True(t, info.Features.Has("caldav"))
	assert.True(t, info.Features.Has("sync-report"))

	assert.Equal(t, 12, sf.WaitAttempts)
	assert.Equal(t, 250*time.Millisecond, sf.WaitInterval)

	got := info.Subs.Resolve("$principal1:")
	assert.Equal(t, "/principals/users/user01/", got)

	s := sf.NewSession()
	assert.Equal(t, 12, s.WaitAttempts)
	assert.Equal(t, 250*time.Millisecond, s.WaitInterval)
}

func TestLoadServerInfoOverrides(t *testing.T) {
	sf, err := LoadServerInfo(writeFile(t, "serverinfo.xml", serverInfoXML),
		map[string]string{"principal1": "/principals/users/other/", "fresh": "new"})
	require.NoError(t, err)

	assert.Equal(t, "/principals/users/other/", sf.Info.Subs.Resolve("$principal1:"))
	assert.Equal(t, "new", sf.Info.Subs.Resolve("$fresh:"))
	assert.Equal(t, "/calendars/users/user01/calendar/", sf.Info.Subs.Resolve("$calendarpath1:"))
}

func TestLoadServerInfoBad(t *testing.T) {
	_, err := LoadServerInfo(writeFile(t, "bad.xml", "<notserverinfo/>"), nil)
	assert.Error(t, err)

	_, err = LoadServerInfo(writeFile(t, "badport.xml",
		"<serverinfo><port>eighty</port></serverinfo>"), nil)
	assert.Error(t, err)
}

const testFileXML = `<davtest>
  <description>Basic PROPFIND coverage</description>
  <require-feature><feature>caldav</feature></require-feature>
  <start>
    <request end-delete="yes">
      <method>PUT</method>
      <ruri>$calendarpath1:1.ics</ruri>
      <data>
        <content-type>text/calendar; charset=utf-8</content-type>
        <filepath>1.ics</filepath>
      </data>
    </request>
  </start>
  <test-suite name="PROPFIND" only="no">
    <test name="1.1" stats="yes">
      <description>depth zero</description>
      <request auth="yes" user="$userid1:" pswd="pw">
        <method>PROPFIND</method>
        <ruri>$calendarpath1:</ruri>
        <header>
          <name>Depth</name>
          <value>0</value>
        </header>
        <data>
          <content-type>text/xml</content-type>
          <value>&lt;propfind/&gt;</value>
        </data>
        <verify>
          <callback>statusCode</callback>
          <arg><name>status</name><value>207</value></arg>
        </verify>
        <grabheader>
          <name>ETag</name>
          <variable>etag1</variable>
        </grabheader>
        <grabelement>
          <name>{DAV:}href</name>
          <parent>{DAV:}response</parent>
          <variable>href1</variable>
          <variable>href2</variable>
        </grabelement>
        <graburi>lasturi</graburi>
      </request>
      <pause>0.5</pause>
      <request host2="yes" iterate-data="yes" wait-for-success="yes" count="3">
        <method>GET</method>
        <ruri>/other/</ruri>
      </request>
    </test>
    <test name="1.2" ignore="yes">
      <request>
        <method>GET</method>
        <ruri>/</ruri>
      </request>
    </test>
  </test-suite>
  <end>
    <request>
      <method>DELETE</method>
      <ruri>$calendarpath1:1.ics</ruri>
    </request>
  </end>
</davtest>`

func testServerInfo() *davtest.ServerInfo {
	return &davtest.ServerInfo{
		Features: davtest.NewFeatureSet("caldav"),
		Subs: davtest.NewSubstitutions(map[string]string{
			"calendarpath1": "/calendars/users/user01/calendar/",
			"userid1":       "user01",
		}),
	}
}

func TestLoadTestFile(t *testing.T) {
	f, err := LoadTestFile(writeFile(t, "propfind.xml", testFileXML), testServerInfo())
	require.NoError(t, err)

	assert.Equal(t, "propfind.xml", f.Name)
	assert.Equal(t, "Basic PROPFIND coverage", f.Description)
	assert.True(t, f.RequireFeatures.Has("caldav"))

	require.Len(t, f.StartRequests, 1)
	start := f.StartRequests[0]
	assert.Equal(t, "PUT", start.Method)
	assert.True(t, start.EndDelete)
	assert.Equal(t, []string{"/calendars/users/user01/calendar/1.ics"}, start.RURIs)
	require.NotNil(t, start.Data)
	assert.Equal(t, "1.ics", start.Data.FilePath)

	require.Len(t, f.EndRequests, 1)
	assert.Equal(t, "DELETE", f.EndRequests[0].Method)

	require.Len(t, f.Suites, 1)
	su := f.Suites[0]
	assert.Equal(t, "PROPFIND", su.Name)
	require.Len(t, su.Tests, 2)

	t1 := su.Tests[0]
	assert.Equal(t, "1.1", t1.Name)
	assert.True(t, t1.Stats)
	require.Len(t, t1.Steps, 3)

	r1 := t1.Steps[0].Request
	require.NotNil(t, r1)
	assert.Equal(t, "PROPFIND", r1.Method)
	assert.Equal(t, "user01", r1.User, "credentials pass the static tier")
	assert.Equal(t, []string{"/calendars/users/user01/calendar/"}, r1.RURIs)
	assert.Equal(t, "0", r1.Headers["Depth"])
	require.NotNil(t, r1.Data)
	assert.Equal(t, "<propfind/>", r1.Data.Value)
	require.Len(t, r1.Verifiers, 1)
	assert.Equal(t, "statusCode", r1.Verifiers[0].Callback)
	assert.Equal(t, []string{"207"}, r1.Verifiers[0].Args["status"])
	require.Len(t, r1.GrabHeader, 1)
	assert.Equal(t, davtest.Grab{Name: "ETag", Variable: "etag1"}, r1.GrabHeader[0])
	require.Len(t, r1.GrabElement, 1)
	assert.Equal(t, "{DAV:}response", r1.GrabElement[0].Parent)
	assert.Equal(t, []string{"href1", "href2"}, r1.GrabElement[0].Variables)
	assert.Equal(t, "lasturi", r1.GrabURI)

	assert.Equal(t, 500*time.Millisecond, t1.Steps[1].Pause)

	r2 := t1.Steps[2].Request
	require.NotNil(t, r2)
	assert.True(t, r2.UseHost2)
	assert.True(t, r2.IterateData)
	assert.True(t, r2.WaitForSuccess)
	assert.Equal(t, 3, r2.Count)

	assert.True(t, su.Tests[1].Ignore)
}

func TestLoadTestFileErrors(t *testing.T) {
	_, err := LoadTestFile(writeFile(t, "notest.xml", "<other/>"), testServerInfo())
	assert.Error(t, err)

	noMethod := `<davtest><test-suite name="x"><test name="1">
	  <request><ruri>/</ruri></request>
	</test></test-suite></davtest>`
	_, err = LoadTestFile(writeFile(t, "nomethod.xml", noMethod), testServerInfo())
	assert.Error(t, err)

	noCallback := `<davtest><test-suite name="x"><test name="1">
	  <request><method>GET</method><ruri>/</ruri><verify></verify></request>
	</test></test-suite></davtest>`
	_, err = LoadTestFile(writeFile(t, "nocallback.xml", noCallback), testServerInfo())
	assert.Error(t, err)
}
