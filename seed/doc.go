// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package seed bootstraps users, projects and role mappings from a YAML file.

	users:
	  - username: admin
	    password: admin-password
	    superuser: true
	projects:
	  - name: movie reviews
	    type: DocumentClassification
	    members:
	      - username: admin
	        role: project_admin

Every project needs a project_admin member; the first one creates it.
Apply matches users by username and projects by name, so a file can be
applied on every start.
*/
package seed
