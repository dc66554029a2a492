/*
Copyright © 2019 the Gridder authors.
This file is part of Gridder.

Gridder is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

Gridder is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with Gridder.  If not, see <http://www.gnu.org/licenses/>.
*/

package gridderutil

import (
	"encoding/json"
	"html/template"
	"net/http"

	"github.com/ctessum/gobra"
	"github.com/sirupsen/logrus"
	"github.com/skratchdot/open-golang/open"
	"github.com/spf13/cobra"
)

// WebAddress is the address the web interface listens on.
const WebAddress = "localhost:7272"

// configHandler reads the configuration file named in the request and
// responds with the resulting option values.
func configHandler(w http.ResponseWriter, r *http.Request) {
	r.ParseForm()
	Root.PersistentFlags().Set("config", r.Form.Get("config"))
	if err := setConfig(); err != nil {
		http.Error(w, err.Error(), http.StatusNoContent)
		return
	}
	config := make(map[string]interface{})
	for _, option := range options {
		config[option.name] = Cfg.Get(option.name)
	}
	if err := json.NewEncoder(w).Encode(config); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// StartWebServer serves a form for each command and opens it in a
// browser.
func StartWebServer() {
	setConfig() // Ignore any errors for now.

	http.HandleFunc("/setConfig", configHandler)

	for _, cmd := range []*cobra.Command{Root, versionCmd, gridCmd, previewCmd, configCmd} {
		cmd.SilenceUsage = true // We don't want the usage messages in the GUI.
	}

	output := template.Must(template.New("").Parse(webTemplate))
	server := gobra.Server{Root: Root, ServerAddress: WebAddress, AllowCORS: false, HTML: output}
	logrus.Info("server starting at http://" + WebAddress)
	if err := open.Run("http://" + WebAddress); err != nil {
		logrus.Infof("open http://%s in a browser to continue", WebAddress)
	}
	server.Start()
}

const webTemplate = `
<!DOCTYPE html>
<html>
<head>
	<meta charset="utf-8">
	<title>Gridder</title>
	<style>
		html, body {padding: 0; margin: 2% 0; font-family: sans-serif;}
		.container { max-width: 700px; margin: 0 auto; padding: 10px; }
		div[id^="gobra-"] blockquote { border-left: 3px solid #bbb; margin: .3em; color: #333; padding-left: 5px; font-size: 75%; }
		div[id^="gobra-"] code { font-weight: bold; }
		div[id^="gobra-"] input { font-family: monospace; margin-left: .2em; width: 50%; outline:none; }
		.red-border{ border: 1px solid #c35; }
		.green-border{ border: 1px solid #3c5; }
	</style>
</head>
<body>
<div class="container">
	<h1>Gridder</h1>
	<p>Configure the run below.</p>
	<div>
		{{.}}
	</div>
</div>

<script>
// When the configuration file changes, fill in the values it sets.
let allFlags = [...document.querySelectorAll('[data-name]')];
let configInput = allFlags.filter(x => x.dataset.name == "config")[0].children[0];
configInput.addEventListener("input", e => {
	fetch("/setConfig?config="+encodeURIComponent(configInput.value))
		.then(res => {
			if (res.status !== 200) {
				configInput.classList.add("red-border");
				return;
			}
			res.json().then(data => {
				configInput.classList.remove("red-border");
				for (let key in data)
					for (let f of allFlags)
						if (f.dataset.name == key) {
							let input = f.children[0];
							let v = JSON.stringify(data[key]).replace(/^"+|"+$/g, '');
							if (input.value != v) {
								input.value = v;
								input.classList.add("green-border");
							}
						}
			})
		})
		.catch(err => console.log("Error fetching /setConfig", err))
})
</script>
</body>
</html>`
