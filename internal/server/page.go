package server

const pageTemplate = `<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>Document analyzer</title>
<style>
body { font-family: sans-serif; margin: 2em; max-width: 960px; }
fieldset { margin-bottom: 1em; }
textarea { width: 100%; min-height: 6em; }
.error { color: #b00020; }
</style>
</head>
<body>
<h1>Document analyzer</h1>
{{if .Error}}<p class="error">{{.Error}}</p>{{end}}
<form method="post" action="/analyze" enctype="multipart/form-data">
  <fieldset>
    <label>Document image <input type="file" name="document" accept="image/*" required></label>
  </fieldset>
  <fieldset>
    <label>Model
      <select name="model">
      {{range .Options.Models}}<option value="{{.}}"{{if eq . $.Options.DefaultModel}} selected{{end}}>{{.}}</option>{{end}}
      </select>
    </label>
    <label>Document language
      <select name="language">
      {{range .Options.Languages}}<option value="{{.}}">{{.}}</option>{{end}}
      </select>
    </label>
  </fieldset>
  <fieldset>
    <legend>Metadata to extract</legend>
    {{range .Options.MetadataFields}}<label><input type="checkbox" name="fields" value="{{.}}"> {{.}}</label>
    {{end}}
  </fieldset>
  <button type="submit">Analyze</button>
  <button type="submit" formaction="/analyze/export">Analyze and export XLSX</button>
</form>
{{with .Result}}
<h2>{{$.Document}}</h2>
<label>Classification<textarea readonly>{{.Classification}}</textarea></label>
<label>Extracted Metadata<textarea readonly>{{.Metadata}}</textarea></label>
<label>Extracted Tests<textarea readonly rows="10">{{.Tests}}</textarea></label>
{{if .Fields}}<table>
<tr><th>Field</th><th>Value</th></tr>
{{range .Fields}}<tr><td>{{.Key}}</td><td>{{.Value}}</td></tr>
{{end}}</table>{{end}}
{{if .Normalized}}<label>Normalized Metadata<textarea readonly>{{.Normalized}}</textarea></label>{{end}}
{{end}}
</body>
</html>
`
