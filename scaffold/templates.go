package scaffold

// Framework identifies a supported project kind. Each framework maps to a
// Dockerfile template and, where the ecosystem expects one, a package
// manifest template.
type Framework string

const (
	FrameworkGo     Framework = "go"
	FrameworkNode   Framework = "node"
	FrameworkPython Framework = "python"
	FrameworkStatic Framework = "static"
)

const dockerfileGo = `FROM golang:1.24-alpine AS build
WORKDIR /src
COPY go.mod go.sum ./
RUN go mod download
COPY . .
RUN CGO_ENABLED=0 go build -o /out/{{.AppName}} .

FROM alpine:3.20
COPY --from=build /out/{{.AppName}} /usr/local/bin/{{.AppName}}
EXPOSE {{.Port}}
ENTRYPOINT ["/usr/local/bin/{{.AppName}}"]
`

const dockerfileNode = `FROM node:22-alpine
WORKDIR /app
COPY package*.json ./
RUN npm ci --omit=dev
COPY . .
EXPOSE {{.Port}}
CMD ["node", "index.js"]
`

const dockerfilePython = `FROM python:3.12-slim
WORKDIR /app
COPY requirements.txt .
RUN pip install --no-cache-dir -r requirements.txt
COPY . .
EXPOSE {{.Port}}
CMD ["python", "app.py"]
`

const dockerfileStatic = `FROM nginx:1.27-alpine
COPY . /usr/share/nginx/html
EXPOSE {{.Port}}
`

const packageJSONNode = `{
  "name": "{{.AppName}}",
  "version": "0.1.0",
  "private": true,
  "main": "index.js",
  "scripts": {
    "start": "node index.js"
  }
}
`

const requirementsPython = `flask>=3.0
gunicorn>=22.0
`

// frameworkFiles lists, per framework, the template-backed files to write.
var frameworkFiles = map[Framework][]templateFile{
	FrameworkGo: {
		{name: "Dockerfile", content: dockerfileGo},
	},
	FrameworkNode: {
		{name: "Dockerfile", content: dockerfileNode},
		{name: "package.json", content: packageJSONNode},
	},
	FrameworkPython: {
		{name: "Dockerfile", content: dockerfilePython},
		{name: "requirements.txt", content: requirementsPython},
	},
	FrameworkStatic: {
		{name: "Dockerfile", content: dockerfileStatic},
	},
}

type templateFile struct {
	name    string
	content string
}

// defaultPort returns the conventional listen port for a framework.
func defaultPort(fw Framework) int {
	if fw == FrameworkStatic {
		return 80
	}
	return 8080
}
