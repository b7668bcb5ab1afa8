package config

const configTemplateYAML = `# harborsync configuration template.
# Every value can be overridden by HARBORSYNC_API_URL, HARBORSYNC_USERNAME,
# HARBORSYNC_PASSWORD or the matching global flags.
server:
  # Harbor API root, including the version prefix.
  api-url: https://harbor.example.com/api/v2.0

  # Mutually exclusive: choose exactly one auth method.
  auth:
    basic-auth:
      username: admin
      password: change-me
    # bearer-token:
    #   token: change-me

  # Optional TLS.
  # tls:
  #   ca-cert-file: /path/to/ca.pem
  #   insecure-skip-verify: false

  # Optional default request headers.
  # default-headers:
  #   X-Example: value

  # Optional request tuning.
  # timeout: 30s
  # requests-per-second: 10
  # burst: 5
`
